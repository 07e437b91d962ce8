// Package importcmd imports one statement file
package importcmd

import (
	"path/filepath"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/importer"
	"fjacquet/bank-recon/internal/models"

	"github.com/spf13/cobra"
)

// Flags of the import command.
type Flags struct {
	Account     string
	Parser      string
	PeriodStart string
	PeriodEnd   string
	Opening     string
	Closing     string
}

var flags Flags

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bank statement file",
	Long: `Import a bank statement file for a bank account. The period is derived from
the line dates when --period-start and --period-end are both omitted.

Example:
  bank-recon import --account bca-main --parser "BCA CSV" \
    --period-start 2024-03-01 --period-end 2024-03-31 --closing 1250000 march.csv`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func init() {
	Register(Cmd, &flags)
}

// Register adds the import flags to cmd.
func Register(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringVar(&f.Account, "account", "", "Bank account id")
	cmd.Flags().StringVarP(&f.Parser, "parser", "p", "", "Parser config id or name")
	cmd.Flags().StringVar(&f.PeriodStart, "period-start", "", "First day of the statement (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.PeriodEnd, "period-end", "", "Last day of the statement (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Opening, "opening", "", "Declared opening balance")
	cmd.Flags().StringVar(&f.Closing, "closing", "", "Declared closing balance")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("parser")
}

// Summary is what the import prints.
type Summary struct {
	Statement *models.BankStatement `json:"statement"`
	Items     int                   `json:"items"`
	Skipped   []models.SkippedRow   `json:"skipped,omitempty"`
	Warnings  []models.Warning      `json:"warnings,omitempty"`
}

func importFunc(cmd *cobra.Command, args []string) error {
	res, err := Import(cmd, flags, args[0])
	if err != nil {
		return err
	}
	return common.PrintJSON(root.SharedFlags.Output, Summary{
		Statement: res.Statement,
		Items:     len(res.Items),
		Skipped:   res.Skipped,
		Warnings:  res.Warnings,
	}, root.GetLogrusAdapter())
}

// Import builds the request from f and imports file.
func Import(cmd *cobra.Command, f Flags, file string) (*importer.ImportResult, error) {
	c := root.GetContainer()
	ctx := cmd.Context()

	raw, err := common.ReadInput(file)
	if err != nil {
		return nil, err
	}
	start, err := common.ParseDate("period-start", f.PeriodStart)
	if err != nil {
		return nil, err
	}
	end, err := common.ParseDate("period-end", f.PeriodEnd)
	if err != nil {
		return nil, err
	}
	opening, err := common.ParseAmount("opening", f.Opening)
	if err != nil {
		return nil, err
	}
	closing, err := common.ParseAmount("closing", f.Closing)
	if err != nil {
		return nil, err
	}
	cfg, err := c.GetParserConfigs().Resolve(ctx, f.Parser)
	if err != nil {
		return nil, err
	}

	return c.GetImporter().ImportStatement(ctx, importer.ImportRequest{
		BankAccountID:   f.Account,
		ParserConfigID:  cfg.ID,
		PeriodStart:     start,
		PeriodEnd:       end,
		DeclaredOpening: opening,
		DeclaredClosing: closing,
		Filename:        filepath.Base(file),
		Raw:             raw,
		Actor:           root.SharedFlags.Actor,
	})
}
