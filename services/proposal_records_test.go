package services_test

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"sitewizard/services"
	"sitewizard/testhelpers"
)

func TestRecalculateProposal_StoresTotals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Acme website", "0.08", "0")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 10000, 2, "6")
	testhelpers.CreateTestLineItem(t, app, p.Id, 2, "Build", 5000, 1, "")

	summary, err := services.RecalculateProposal(app, p.Id)
	if err != nil {
		t.Fatalf("RecalculateProposal() error: %v", err)
	}
	if summary.Total.Amount != 27000 {
		t.Errorf("total = %d, want 27000", summary.Total.Amount)
	}

	stored, err := app.FindRecordById("proposals", p.Id)
	if err != nil {
		t.Fatalf("reload proposal: %v", err)
	}
	if got := stored.GetInt("subtotal_cents"); got != 25000 {
		t.Errorf("subtotal_cents = %d, want 25000", got)
	}
	if got := stored.GetInt("tax_cents"); got != 2000 {
		t.Errorf("tax_cents = %d, want 2000", got)
	}
	if got := stored.GetInt("total_cents"); got != 27000 {
		t.Errorf("total_cents = %d, want 27000", got)
	}
	if got := stored.GetString("total_hours"); got != "12" {
		t.Errorf("total_hours = %q, want 12", got)
	}
}

func TestRecalculateProposal_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Acme website", "0.0725", "7.5")
	testhelpers.CreateTestLineItem(t, app, p.Id, 1, "Design", 12345, 3, "2.25")

	first, err := services.RecalculateProposal(app, p.Id)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := services.RecalculateProposal(app, p.Id)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Total != second.Total || first.TaxAmount != second.TaxAmount {
		t.Errorf("recalculation is not stable: %+v vs %+v", first, second)
	}
}

func TestPriceProposal_Empty(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Empty", "0.1", "0")

	summary, items, err := services.PriceProposal(app, p)
	if err != nil {
		t.Fatalf("PriceProposal() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if !summary.Total.IsZero() || summary.Total.Currency != services.USD {
		t.Errorf("expected zero USD total, got %v", summary.Total)
	}
}

func TestPriceProposal_RejectsBadTaxRate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	p := testhelpers.CreateTestProposal(t, app, "PRP-2026-001", "Bad", "not-a-number", "0")

	if _, _, err := services.PriceProposal(app, p); !services.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGenerateProposalNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

	first, err := services.GenerateProposalNumber(app, now)
	if err != nil {
		t.Fatalf("GenerateProposalNumber() error: %v", err)
	}
	if first != "PRP-2026-001" {
		t.Errorf("first number = %q, want PRP-2026-001", first)
	}

	testhelpers.CreateTestProposal(t, app, first, "One", "0", "0")
	testhelpers.CreateTestProposal(t, app, "PRP-2025-007", "Last year", "0", "0")

	second, err := services.GenerateProposalNumber(app, now)
	if err != nil {
		t.Fatalf("GenerateProposalNumber() error: %v", err)
	}
	if second != "PRP-2026-002" {
		t.Errorf("second number = %q, want PRP-2026-002", second)
	}
}

func TestPackageFromRecord_Multiplier(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, err := app.FindCollectionByNameOrId("packages")
	if err != nil {
		t.Fatalf("packages collection: %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"exact decimal", "2.35", "2.35", false},
		{"unset", "", "0", false},
		{"not a number", "twice", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := core.NewRecord(col)
			rec.Set("slug", "custom")
			rec.Set("currency", "USD")
			rec.Set("base_price_cents", 100000)
			rec.Set("market_rate_multiplier", tt.raw)

			pkg, err := services.PackageFromRecord(rec)
			if tt.wantErr {
				if !services.IsValidationError(err) {
					t.Errorf("expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PackageFromRecord() error: %v", err)
			}
			if got := pkg.MarketRateMultiplier.String(); got != tt.want {
				t.Errorf("multiplier = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCatalogQueries(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.SeedCatalog(t, app)
	testhelpers.CreateTestAddon(t, app, "retired", 500, false)

	packages, err := services.ListPackages(app)
	if err != nil {
		t.Fatalf("ListPackages() error: %v", err)
	}
	if len(packages) != 3 || packages[0].Slug != "starter" {
		t.Errorf("unexpected packages: %+v", packages)
	}

	pkg, err := services.FindPackageBySlug(app, "business")
	if err != nil {
		t.Fatalf("FindPackageBySlug() error: %v", err)
	}
	if pkg.BasePrice.Amount != 149900 || pkg.BasePrice.Currency != services.USD {
		t.Errorf("unexpected base price %v", pkg.BasePrice)
	}
	if got := pkg.MarketRateMultiplier.String(); got != "2.2" {
		t.Errorf("market rate multiplier = %s, want 2.2", got)
	}
	if _, err := services.FindPackageBySlug(app, "missing"); err == nil {
		t.Error("expected error for unknown package")
	}

	addons, err := services.ListActiveAddons(app)
	if err != nil {
		t.Fatalf("ListActiveAddons() error: %v", err)
	}
	if len(addons) != 7 {
		t.Errorf("expected 7 active add-ons, got %d", len(addons))
	}
	for _, a := range addons {
		if a.Slug == "retired" {
			t.Error("inactive add-on listed")
		}
	}
}
