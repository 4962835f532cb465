package collections_test

import (
	"testing"
	"time"

	"sitewizard/collections"
	"sitewizard/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

func newSessionRecord(col *core.Collection, key string) *core.Record {
	rec := core.NewRecord(col)
	rec.Set("key", key)
	rec.Set("value", `{"data":{},"currentStep":0}`)
	return rec
}

func TestMigrateProposalTotals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Legacy", "0.1", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 10000, 1, "")

	p.Set("total_hours", "")
	if err := app.Save(p); err != nil {
		t.Fatalf("save legacy proposal: %v", err)
	}

	if err := collections.MigrateProposalTotals(app); err != nil {
		t.Fatalf("MigrateProposalTotals() error: %v", err)
	}

	got, err := app.FindRecordById("proposals", p.Id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.GetInt("total_cents") != 11000 {
		t.Errorf("total_cents = %d, want 11000", got.GetInt("total_cents"))
	}
	if got.GetString("total_hours") != "0" {
		t.Errorf("total_hours = %q, want 0", got.GetString("total_hours"))
	}

	// Nothing left to migrate.
	if err := collections.MigrateProposalTotals(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}
}

func TestPruneWizardSessions(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	col, err := app.FindCollectionByNameOrId("wizard_sessions")
	if err != nil {
		t.Fatalf("wizard_sessions not found: %v", err)
	}
	for _, key := range []string{"wizard:a", "wizard:b"} {
		rec := newSessionRecord(col, key)
		if err := app.Save(rec); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	removed, err := collections.PruneWizardSessions(app, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("PruneWizardSessions() error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected fresh sessions to survive, removed %d", removed)
	}

	removed, err = collections.PruneWizardSessions(app, time.Hour, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PruneWizardSessions() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 stale sessions removed, got %d", removed)
	}

	if removed, _ := collections.PruneWizardSessions(app, 0, time.Now()); removed != 0 {
		t.Errorf("zero TTL must not prune, removed %d", removed)
	}
}
