// Package parse previews how a parser config reads a statement file
package parse

import (
	"fmt"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	internalcommon "fjacquet/bank-recon/internal/common"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"

	"github.com/spf13/cobra"
)

var parserConfig string

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a statement file without importing it",
	Long: `Parse a statement file with a parser config and print the normalized lines
and skipped rows. Nothing is stored.

Example:
  bank-recon parse --parser "BCA CSV" march.csv
  bank-recon parse --parser "BCA CSV" -f csv -o lines.csv march.csv`,
	Args: cobra.ExactArgs(1),
	RunE: parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&parserConfig, "parser", "p", "", "Parser config id or name")
	_ = Cmd.MarkFlagRequired("parser")
}

// lineRow is the CSV rendering of a normalized line.
type lineRow struct {
	Line        int    `csv:"line"`
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	Reference   string `csv:"reference"`
	Balance     string `csv:"balance"`
}

func parseFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	logger := root.GetLogrusAdapter()
	ctx := cmd.Context()

	raw, err := common.ReadInput(args[0])
	if err != nil {
		return err
	}
	cfg, err := c.GetParserConfigs().Resolve(ctx, parserConfig)
	if err != nil {
		return err
	}
	result, err := c.GetImporter().Preview(ctx, cfg.ID, raw)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Parsed %d lines, skipped %d rows", len(result.Lines), len(result.Skipped)))

	if root.SharedFlags.Format != "csv" {
		return common.PrintJSON(root.SharedFlags.Output, result, logger)
	}
	if root.SharedFlags.Output != "" {
		return internalcommon.WriteCSVFile(root.SharedFlags.Output, lineRows(result.Lines), logger)
	}
	data, err := internalcommon.MarshalCSV(lineRows(result.Lines), internalcommon.DefaultDelimiter)
	if err != nil {
		return err
	}
	return common.WriteOutput(root.SharedFlags.Output, data, logger)
}

func lineRows(lines []models.NormalizedLine) []lineRow {
	rows := make([]lineRow, 0, len(lines))
	for _, l := range lines {
		row := lineRow{
			Line:        l.LineNumber,
			Date:        dateutils.ToISODate(l.Date),
			Amount:      l.Amount.String(),
			Description: l.Description,
			Reference:   l.Reference,
		}
		if l.Balance != nil {
			row.Balance = l.Balance.String()
		}
		rows = append(rows, row)
	}
	return rows
}
