// Package statements lists, inspects and deletes imported statements
package statements

import (
	"fmt"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/importer"

	"github.com/spf13/cobra"
)

var (
	account string
	status  string
)

// Cmd represents the statements command
var Cmd = &cobra.Command{
	Use:   "statements",
	Short: "Manage imported statements",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List statements, optionally for one account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := root.GetContainer().GetImporter().ListStatements(cmd.Context(), account)
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, list, root.GetLogrusAdapter())
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items <statement-id>",
	Short: "List the items of a statement",
	Long: `List the items of a statement in line order.

--status filters by outcome: all, unmatched, matched or bank_only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := importer.ParseItemFilter(status)
		if err != nil {
			return err
		}
		items, err := root.GetContainer().GetImporter().ListItems(cmd.Context(), args[0], filter)
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, items, root.GetLogrusAdapter())
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <statement-id>",
	Short: "Delete a statement that no reconciliation uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := root.GetContainer().GetImporter().DeleteStatement(cmd.Context(), args[0], root.SharedFlags.Actor); err != nil {
			return err
		}
		root.Log.Info(fmt.Sprintf("Statement %s deleted", args[0]))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&account, "account", "", "Bank account id")
	itemsCmd.Flags().StringVar(&status, "status", "all", "Outcome filter")
	Cmd.AddCommand(listCmd, itemsCmd, deleteCmd)
}
