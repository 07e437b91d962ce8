// Package run reconciles one statement file end to end
package run

import (
	"fjacquet/bank-recon/cmd/importcmd"
	"fjacquet/bank-recon/cmd/report"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/reconciliation"

	"github.com/spf13/cobra"
)

var (
	flags    importcmd.Flags
	complete bool
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Import, auto-match and report one statement in a single step",
	Long: `Import a statement file, open a reconciliation session for it, auto-match it
against the ledger (files.ledger) and render the reconciliation statement.

This is the way to use the in-memory store, which does not outlive the
command.

Example:
  RECON_FILES_LEDGER=ledger.csv bank-recon run --account bca-main \
    --parser "BCA CSV" -f xlsx -o march.xlsx march.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFunc,
}

func init() {
	importcmd.Register(Cmd, &flags)
	Cmd.Flags().BoolVar(&complete, "complete", false, "Complete the session when nothing is left unmatched")
}

func runFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	logger := c.GetLogger()
	ctx := cmd.Context()
	actor := root.SharedFlags.Actor

	imported, err := importcmd.Import(cmd, flags, args[0])
	if err != nil {
		return err
	}
	for _, w := range imported.Warnings {
		logger.Warn(w.Message, logging.F("code", w.Code), logging.F(logging.FieldLine, w.Line))
	}

	svc := c.GetReconciliation()
	rec, err := svc.Create(ctx, reconciliation.CreateRequest{StatementID: imported.Statement.ID, Actor: actor})
	if err != nil {
		return err
	}
	if _, err := svc.AutoMatch(ctx, rec.ID, actor); err != nil {
		return err
	}

	if complete {
		summary, err := c.GetReporter().Summary(ctx, rec.ID)
		if err != nil {
			return err
		}
		if summary.Completable {
			if _, err := svc.Complete(ctx, rec.ID, actor); err != nil {
				return err
			}
		} else {
			logger.Warn("Session left open, items are still unmatched",
				logging.F(logging.FieldCount, summary.UnmatchedBank.Count))
		}
	}
	return report.Render(cmd, rec.ID, root.SharedFlags.Format, root.SharedFlags.Output)
}
