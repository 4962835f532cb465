package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"sitewizard/services"
)

// Setup programmatically creates/ensures the catalog, proposal, wizard
// session and site request collections exist.
func Setup(app *pocketbase.PocketBase) {
	packages := ensureCollection(app, "packages", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "slug", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.NumberField{Name: "base_price_cents", Required: true, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "currency", Required: true})
		c.Fields.Add(&core.TextField{Name: "market_rate_multiplier", Required: false})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false})
		c.AddIndex("idx_packages_slug", true, "slug", "")
	})

	ensureCollection(app, "addons", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "slug", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "category",
			Required:  true,
			Values:    []string{"content", "commerce", "marketing", "integration", "support"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "price_cents", Required: true, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "currency", Required: true})
		c.Fields.Add(&core.BoolField{Name: "active"})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false})
		c.AddIndex("idx_addons_slug", true, "slug", "")
	})

	siteRequests := ensureCollection(app, "site_requests", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "session_key", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:         "package",
			Required:     false,
			CollectionId: packages.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "business_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "contact_name", Required: false})
		c.Fields.Add(&core.EmailField{Name: "contact_email", Required: false})
		c.Fields.Add(&core.JSONField{Name: "data", Required: false})
		c.Fields.Add(&core.JSONField{Name: "addon_ids", Required: false})
		c.Fields.Add(&core.NumberField{Name: "estimated_total_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "market_value_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "currency", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"new", "contacted", "proposal_sent", "won", "lost"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_site_requests_session_key", true, "session_key", "")
	})

	proposals := ensureCollection(app, "proposals", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "proposal_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "client_name", Required: true})
		c.Fields.Add(&core.EmailField{Name: "client_email", Required: false})
		c.Fields.Add(&core.RelationField{
			Name:         "site_request",
			Required:     false,
			CollectionId: siteRequests.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "sent", "accepted", "declined"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "currency", Required: true})
		c.Fields.Add(&core.TextField{Name: "tax_rate", Required: false})
		c.Fields.Add(&core.TextField{Name: "discount_percent", Required: false})
		c.Fields.Add(&core.NumberField{Name: "subtotal_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "discount_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "tax_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "total_cents", Required: false, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "total_hours", Required: false})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_proposals_number", true, "proposal_number", "")
	})

	ensureCollection(app, "proposal_line_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "proposal",
			Required:      true,
			CollectionId:  proposals.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.NumberField{
			Name:     "unit_price_cents",
			Required: false,
			OnlyInt:  true,
			Min:      types.Pointer(0.0),
			Max:      types.Pointer(float64(services.MaxStoredAmount)),
		})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: true, OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "estimated_hours", Required: false})
	})

	ensureCollection(app, "wizard_sessions", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "key", Required: true})
		c.Fields.Add(&core.TextField{Name: "value", Required: false, Max: 1 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_wizard_sessions_key", true, "key", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
