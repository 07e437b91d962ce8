// Package batch handles batch imports of statement directories
package batch

import (
	"fmt"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/batch"

	"github.com/spf13/cobra"
)

var (
	parserConfig string
	workers      int
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Import every statement file in a directory",
	Long: `Import every statement file (.csv, .txt, .prn, .xlsx, .xls, .xml) in a directory.

Files are named {account}_{start}_{end}[_anything].{ext}; the account prefix
selects the bank account and the dates set the statement period. Without
dates the period is derived from the lines. A failing file is reported and
the others are still imported.

Example:
  bank-recon batch --parser "BCA CSV" statements/`,
	Args: cobra.ExactArgs(1),
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&parserConfig, "parser", "p", "", "Parser config id or name")
	Cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent imports")
	_ = Cmd.MarkFlagRequired("parser")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	logger := c.GetLogger()
	ctx := cmd.Context()

	cfg, err := c.GetParserConfigs().Resolve(ctx, parserConfig)
	if err != nil {
		return err
	}
	b := batch.NewImporter(c.GetImporter(), logger)
	groups, err := b.Plan(args[0])
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		logger.Warn("No supported files found in input directory")
		return nil
	}
	outcomes, err := b.Run(ctx, groups, batch.Options{
		ParserConfigID: cfg.ID,
		Actor:          root.SharedFlags.Actor,
		Workers:        workers,
	})
	if err != nil {
		return err
	}
	if err := common.PrintJSON(root.SharedFlags.Output, outcomes, logger); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Failed() {
			return fmt.Errorf("some files failed to import")
		}
	}
	return nil
}
