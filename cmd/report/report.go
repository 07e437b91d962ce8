// Package report renders reconciliation statements
package report

import (
	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Report on a reconciliation session",
}

var summaryCmd = &cobra.Command{
	Use:   "summary <reconciliation-id>",
	Short: "Render the reconciliation statement",
	Long: `Render the reconciliation statement of a session: book and bank balances,
the adjustments on each side and the remaining difference.

Example:
  bank-recon report summary 6f1c... -f xlsx -o march.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Render(cmd, args[0], root.SharedFlags.Format, root.SharedFlags.Output)
	},
}

var outstandingCmd = &cobra.Command{
	Use:   "outstanding <reconciliation-id>",
	Short: "List the unmatched and exception lines of both sides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := root.GetContainer().GetReporter().Outstanding(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, lines, root.GetLogrusAdapter())
	},
}

// Render computes the summary of a session and writes it in format.
func Render(cmd *cobra.Command, id, format, output string) error {
	c := root.GetContainer()
	summary, err := c.GetReporter().Summary(cmd.Context(), id)
	if err != nil {
		return err
	}
	data, err := c.GetGenerator().Generate(summary, format)
	if err != nil {
		return err
	}
	return common.WriteOutput(output, data, c.GetLogger())
}

func init() {
	Cmd.AddCommand(summaryCmd, outstandingCmd)
}
