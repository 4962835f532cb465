package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type packageDef struct {
	sortOrder        int
	name             string
	slug             string
	description      string
	basePriceCents   int64
	marketMultiplier string
}

type addonDef struct {
	sortOrder   int
	name        string
	slug        string
	description string
	category    string
	priceCents  int64
}

const seedCurrency = "USD"

var seedPackages = []packageDef{
	{1, "Starter", "starter", "A single landing page with contact form and basic SEO.", 49900, "2"},
	{2, "Business", "business", "Up to eight pages, blog, analytics and a content editor.", 149900, "2.2"},
	{3, "Growth", "growth", "Custom design system, unlimited pages and conversion tracking.", 349900, "2.5"},
}

var seedAddons = []addonDef{
	{1, "Online store", "ecommerce", "Product catalog, cart and checkout.", "commerce", 79900},
	{2, "Booking calendar", "booking", "Let customers book appointments online.", "integration", 29900},
	{3, "Copywriting (per page)", "copywriting", "Professional copy for each page.", "content", 14900},
	{4, "Logo design", "logo", "Three concepts and two rounds of revisions.", "content", 24900},
	{5, "SEO starter pack", "seo", "Keyword research and on-page optimisation.", "marketing", 19900},
	{6, "Newsletter integration", "newsletter", "Signup forms wired to your mailing list.", "integration", 9900},
	{7, "Priority support (12 months)", "support", "Same-day responses and monthly updates.", "support", 59900},
}

// Seed populates the package and add-on catalog when it is empty.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if packages already exist ──────────────────
	packagesCol, err := app.FindCollectionByNameOrId("packages")
	if err != nil {
		return fmt.Errorf("seed: could not find packages collection: %w", err)
	}
	existing, err := app.FindAllRecords(packagesCol)
	if err != nil {
		return fmt.Errorf("seed: could not query packages: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: packages collection is empty – inserting catalog …")

	addonsCol, err := app.FindCollectionByNameOrId("addons")
	if err != nil {
		return fmt.Errorf("seed: could not find addons collection: %w", err)
	}

	for _, d := range seedPackages {
		rec := core.NewRecord(packagesCol)
		rec.Set("sort_order", d.sortOrder)
		rec.Set("name", d.name)
		rec.Set("slug", d.slug)
		rec.Set("description", d.description)
		rec.Set("base_price_cents", d.basePriceCents)
		rec.Set("currency", seedCurrency)
		rec.Set("market_rate_multiplier", d.marketMultiplier)
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("seed: save package %q: %w", d.slug, err)
		}
	}

	for _, d := range seedAddons {
		rec := core.NewRecord(addonsCol)
		rec.Set("sort_order", d.sortOrder)
		rec.Set("name", d.name)
		rec.Set("slug", d.slug)
		rec.Set("description", d.description)
		rec.Set("category", d.category)
		rec.Set("price_cents", d.priceCents)
		rec.Set("currency", seedCurrency)
		rec.Set("active", true)
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("seed: save addon %q: %w", d.slug, err)
		}
	}

	log.Printf("seed: inserted %d packages and %d add-ons", len(seedPackages), len(seedAddons))
	return nil
}
