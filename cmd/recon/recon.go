// Package recon drives reconciliation sessions
package recon

import (
	"fmt"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/reconciliation"

	"github.com/spf13/cobra"
)

var (
	notes       string
	templateID  string
	description string
)

// Cmd represents the recon command
var Cmd = &cobra.Command{
	Use:   "recon",
	Short: "Reconcile a statement against the books",
	Long: `Create a reconciliation session for an imported statement, match its items to
book transactions and complete it once every item is explained.`,
}

func service() *reconciliation.Service {
	return root.GetContainer().GetReconciliation()
}

func output(v interface{}) error {
	return common.PrintJSON(root.SharedFlags.Output, v, root.GetLogrusAdapter())
}

var createCmd = &cobra.Command{
	Use:   "create <statement-id>",
	Short: "Open a session for a statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := service().Create(cmd.Context(), reconciliation.CreateRequest{
			StatementID: args[0],
			Notes:       notes,
			Actor:       root.SharedFlags.Actor,
		})
		if err != nil {
			return err
		}
		return output(rec)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <reconciliation-id>",
	Short: "Show a session with its matched and outstanding lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := service().Detail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(d)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <statement-id>",
	Short: "List the sessions of a statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := service().ListByStatement(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(list)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <reconciliation-id>",
	Short: "Show the full event log of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := service().Events(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(events)
	},
}

var autoMatchCmd = &cobra.Command{
	Use:   "automatch <reconciliation-id>",
	Short: "Match unmatched items to book transactions of equal amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := service().AutoMatch(cmd.Context(), args[0], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		root.Log.Info(fmt.Sprintf("Auto-matched %d items", n))
		return output(map[string]int{"matched": n})
	},
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <reconciliation-id> <item-id>",
	Short: "Rank book transactions that could match an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := service().CandidatePreview(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return output(list)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <reconciliation-id> <item-id> <transaction-id>",
	Short: "Match an item to a book transaction",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := service().ManualMatch(cmd.Context(), args[0], args[1], args[2], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(e)
	},
}

var unmatchCmd = &cobra.Command{
	Use:   "unmatch <reconciliation-id> <event-id>",
	Short: "Void a match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := service().Unmatch(cmd.Context(), args[0], args[1], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(e)
	},
}

var bankOnlyCmd = &cobra.Command{
	Use:   "bank-only <reconciliation-id> <item-id>",
	Short: "Explain an item that has no book counterpart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := service().MarkBankOnly(cmd.Context(), args[0], args[1], notes, root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(e)
	},
}

var bookOnlyCmd = &cobra.Command{
	Use:   "book-only <reconciliation-id> <transaction-id>",
	Short: "Explain a book transaction the bank has not shown",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := service().MarkBookOnly(cmd.Context(), args[0], args[1], notes, root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(e)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <reconciliation-id> <event-id>",
	Short: "Void a bank-only or book-only entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := service().ClearException(cmd.Context(), args[0], args[1], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(e)
	},
}

var createTxCmd = &cobra.Command{
	Use:   "create-tx <reconciliation-id> <item-id>",
	Short: "Book a transaction for an item and match it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, e, err := service().CreateTransactionFromStatementItem(cmd.Context(), args[0], args[1], templateID, description, root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(map[string]interface{}{"transaction": tx, "event": e})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <reconciliation-id>",
	Short: "Complete a session with no unmatched items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := service().Complete(cmd.Context(), args[0], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(rec)
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <reconciliation-id>",
	Short: "Return a completed session to OPEN when the reopen policy allows it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := service().Reopen(cmd.Context(), args[0], root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return output(rec)
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, bankOnlyCmd, bookOnlyCmd} {
		c.Flags().StringVar(&notes, "notes", "", "Free-text explanation")
	}
	createTxCmd.Flags().StringVar(&templateID, "template", "", "Journal template id")
	createTxCmd.Flags().StringVar(&description, "description", "", "Description (defaults to the item's)")
	_ = createTxCmd.MarkFlagRequired("template")

	Cmd.AddCommand(createCmd, showCmd, listCmd, eventsCmd, autoMatchCmd, candidatesCmd,
		matchCmd, unmatchCmd, bankOnlyCmd, bookOnlyCmd, clearCmd, createTxCmd,
		completeCmd, reopenCmd)
}
