package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Package is a base offering the wizard prices add-ons on top of.
type Package struct {
	ID                   string          `json:"id"`
	Slug                 string          `json:"slug"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	BasePrice            Money           `json:"base_price"`
	MarketRateMultiplier decimal.Decimal `json:"market_rate_multiplier"`
}

// PackageFromRecord maps a packages record.
func PackageFromRecord(rec *core.Record) (Package, error) {
	currency, err := ParseCurrency(rec.GetString("currency"))
	if err != nil {
		return Package{}, fmt.Errorf("package %s: %w", rec.Id, err)
	}
	multiplier, err := ParseDecimalField(rec, "market_rate_multiplier")
	if err != nil {
		return Package{}, fmt.Errorf("package %s: %w", rec.Id, err)
	}
	return Package{
		ID:                   rec.Id,
		Slug:                 rec.GetString("slug"),
		Name:                 rec.GetString("name"),
		Description:          rec.GetString("description"),
		BasePrice:            NewMoney(int64(rec.GetInt("base_price_cents")), currency),
		MarketRateMultiplier: multiplier,
	}, nil
}

// AddonFromRecord maps an addons record.
func AddonFromRecord(rec *core.Record) (Addon, error) {
	currency, err := ParseCurrency(rec.GetString("currency"))
	if err != nil {
		return Addon{}, fmt.Errorf("addon %s: %w", rec.Id, err)
	}
	return Addon{
		ID:          rec.Id,
		Slug:        rec.GetString("slug"),
		Name:        rec.GetString("name"),
		Category:    rec.GetString("category"),
		Description: rec.GetString("description"),
		Price:       NewMoney(int64(rec.GetInt("price_cents")), currency),
	}, nil
}

// ListPackages returns all packages ordered by sort_order.
func ListPackages(app core.App) ([]Package, error) {
	records, err := app.FindRecordsByFilter("packages", "id != ''", "sort_order", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	out := make([]Package, 0, len(records))
	for _, rec := range records {
		p, err := PackageFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FindPackageBySlug looks a package up by its slug.
func FindPackageBySlug(app core.App, slug string) (Package, error) {
	rec, err := app.FindFirstRecordByData("packages", "slug", slug)
	if err != nil {
		return Package{}, fmt.Errorf("package %q not found: %w", slug, err)
	}
	return PackageFromRecord(rec)
}

// ListActiveAddons returns the add-ons currently offered.
func ListActiveAddons(app core.App) ([]Addon, error) {
	records, err := app.FindRecordsByFilter("addons", "active = true", "sort_order", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list addons: %w", err)
	}
	out := make([]Addon, 0, len(records))
	for _, rec := range records {
		a, err := AddonFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SelectionFromIDs resolves add-on IDs against the active catalog. Unknown or
// retired IDs are dropped so a stale wizard session cannot price them.
func SelectionFromIDs(catalog []Addon, ids []string) AddonSelection {
	byID := make(map[string]Addon, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	var picked []Addon
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			picked = append(picked, a)
		}
	}
	return NewAddonSelection(picked...)
}
