// Package commands holds extra CLI commands attached to the PocketBase root
// command.
package commands

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"sitewizard/collections"
	"sitewizard/config"
	"sitewizard/services"
)

// NewRecalcCommand returns the recalc-proposals command, which re-derives
// stored totals for every proposal.
func NewRecalcCommand(app *pocketbase.PocketBase) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc-proposals",
		Short: "Recalculate the stored totals of every proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)

			proposals, err := app.FindRecordsByFilter("proposals", "id != ''", "created", 0, 0)
			if err != nil {
				return fmt.Errorf("recalc: could not query proposals: %w", err)
			}

			failed := 0
			for _, p := range proposals {
				summary, err := services.RecalculateProposal(app, p.Id)
				if err != nil {
					failed++
					cmd.PrintErrf("%s: %v\n", p.GetString("proposal_number"), err)
					continue
				}
				cmd.Printf("%s\t%s\n", p.GetString("proposal_number"), services.FormatMoney(summary.Total))
			}

			cmd.Printf("recalculated %d/%d proposal(s)\n", len(proposals)-failed, len(proposals))
			if failed > 0 {
				return fmt.Errorf("recalc: %d proposal(s) failed", failed)
			}
			return nil
		},
	}
}

// NewPruneSessionsCommand returns the prune-sessions command, which deletes
// wizard sessions older than the configured session TTL.
func NewPruneSessionsCommand(app *pocketbase.PocketBase, settings config.Config) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete wizard sessions that have not been updated within the TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)

			removed, err := collections.PruneWizardSessions(app, ttl, time.Now())
			if err != nil {
				return err
			}
			cmd.Printf("removed %d wizard session(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", settings.SessionTTL, "age after which a session is considered stale")
	return cmd
}
