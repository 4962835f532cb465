// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitewizard/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// SeedCatalog loads the default packages and add-ons.
func SeedCatalog(t *testing.T, app *pocketbase.PocketBase) {
	t.Helper()

	if err := collections.Seed(app); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
}

// FindBySlug returns the packages or addons record with the given slug.
func FindBySlug(t *testing.T, app *pocketbase.PocketBase, collection, slug string) *core.Record {
	t.Helper()

	rec, err := app.FindFirstRecordByData(collection, "slug", slug)
	if err != nil {
		t.Fatalf("failed to find %s %q: %v", collection, slug, err)
	}
	return rec
}

// CreateTestAddon creates an add-on record and returns it.
func CreateTestAddon(t *testing.T, app *pocketbase.PocketBase, slug string, priceCents int64, active bool) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("addons")
	if err != nil {
		t.Fatalf("failed to find addons collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", strings.ToUpper(slug[:1])+slug[1:])
	record.Set("slug", slug)
	record.Set("category", "content")
	record.Set("price_cents", priceCents)
	record.Set("currency", "USD")
	record.Set("active", active)
	record.Set("sort_order", 99)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test addon: %v", err)
	}
	return record
}

// CreateTestProposal creates a draft USD proposal with the given tax rate and
// discount (decimal strings) and returns it.
func CreateTestProposal(t *testing.T, app *pocketbase.PocketBase, number, title, taxRate, discount string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		t.Fatalf("failed to find proposals collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("proposal_number", number)
	record.Set("title", title)
	record.Set("client_name", "Test Client")
	record.Set("client_email", "client@example.com")
	record.Set("status", "draft")
	record.Set("currency", "USD")
	record.Set("tax_rate", taxRate)
	record.Set("discount_percent", discount)
	record.Set("total_hours", "0")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test proposal: %v", err)
	}
	return record
}

// CreateTestLineItem creates a proposal line item and returns it.
func CreateTestLineItem(t *testing.T, app *pocketbase.PocketBase, proposalID string, sortOrder int, description string, unitPriceCents int64, quantity int, hours string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("proposal_line_items")
	if err != nil {
		t.Fatalf("failed to find proposal_line_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("proposal", proposalID)
	record.Set("sort_order", sortOrder)
	record.Set("description", description)
	record.Set("unit_price_cents", unitPriceCents)
	record.Set("quantity", quantity)
	record.Set("estimated_hours", hours)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test line item: %v", err)
	}
	return record
}

// CreateTestSiteRequest creates a submitted wizard request for packageID with
// the given add-on IDs and returns it.
func CreateTestSiteRequest(t *testing.T, app *pocketbase.PocketBase, sessionKey, packageID string, addonIDs []string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("site_requests")
	if err != nil {
		t.Fatalf("failed to find site_requests collection: %v", err)
	}

	if addonIDs == nil {
		addonIDs = []string{}
	}

	record := core.NewRecord(col)
	record.Set("session_key", sessionKey)
	record.Set("package", packageID)
	record.Set("business_name", "Acme Bakery")
	record.Set("contact_name", "Sam Baker")
	record.Set("contact_email", "sam@example.com")
	record.Set("data", map[string]any{"business_name": "Acme Bakery"})
	record.Set("addon_ids", addonIDs)
	record.Set("currency", "USD")
	record.Set("status", "new")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test site request: %v", err)
	}
	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
