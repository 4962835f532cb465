package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/tools/types"

	"sitewizard/services"
)

// MigrateProposalTotals recalculates proposals whose stored totals predate
// the total_hours column. Safe to call on every startup -- returns early if
// nothing to migrate.
func MigrateProposalTotals(app *pocketbase.PocketBase) error {
	stale, err := app.FindRecordsByFilter("proposals", "total_hours = ''", "", 0, 0)
	if err != nil {
		return fmt.Errorf("migrate: could not query proposals: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	log.Printf("migrate: recalculating totals for %d proposal(s)\n", len(stale))

	migrated := 0
	for _, p := range stale {
		if _, err := services.RecalculateProposal(app, p.Id); err != nil {
			log.Printf("migrate: failed to recalculate proposal %s: %v\n", p.Id, err)
			continue
		}
		migrated++
	}

	log.Printf("migrate: recalculated %d/%d proposal(s)\n", migrated, len(stale))
	return nil
}

// PruneWizardSessions deletes persisted wizard sessions that have not been
// touched for longer than ttl. It returns the number of sessions removed.
func PruneWizardSessions(app *pocketbase.PocketBase, ttl time.Duration, now time.Time) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff, err := types.ParseDateTime(now.Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("prune: cutoff: %w", err)
	}

	stale, err := app.FindRecordsByFilter(
		"wizard_sessions",
		"updated < {:cutoff}",
		"",
		0,
		0,
		map[string]any{"cutoff": cutoff.String()},
	)
	if err != nil {
		return 0, fmt.Errorf("prune: could not query wizard sessions: %w", err)
	}

	removed := 0
	for _, rec := range stale {
		if err := app.Delete(rec); err != nil {
			log.Printf("prune: failed to delete wizard session %s: %v\n", rec.Id, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("prune: removed %d stale wizard session(s)\n", removed)
	}
	return removed, nil
}
