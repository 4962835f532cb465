package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ParseDecimalField reads a decimal stored as text. Empty means zero.
func ParseDecimalField(rec *core.Record, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(rec.GetString(field))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid(field, raw, err)
	}
	return d, nil
}

// ProposalTerms are the proposal-level pricing inputs.
type ProposalTerms struct {
	Currency        Currency
	TaxRate         decimal.Decimal
	DiscountPercent decimal.Decimal
}

// ProposalTermsFromRecord reads currency, tax rate and discount off a
// proposals record.
func ProposalTermsFromRecord(rec *core.Record) (ProposalTerms, error) {
	currency, err := ParseCurrency(rec.GetString("currency"))
	if err != nil {
		return ProposalTerms{}, err
	}
	taxRate, err := ParseDecimalField(rec, "tax_rate")
	if err != nil {
		return ProposalTerms{}, err
	}
	discount, err := ParseDecimalField(rec, "discount_percent")
	if err != nil {
		return ProposalTerms{}, err
	}
	return ProposalTerms{Currency: currency, TaxRate: taxRate, DiscountPercent: discount}, nil
}

// LineItemFromRecord maps a proposal_line_items record. The currency comes
// from the owning proposal.
func LineItemFromRecord(rec *core.Record, currency Currency) (LineItem, error) {
	item, err := CalcLineItem(NewMoney(int64(rec.GetInt("unit_price_cents")), currency), rec.GetInt("quantity"))
	if err != nil {
		return LineItem{}, fmt.Errorf("line item %s: %w", rec.Id, err)
	}
	hours, err := ParseDecimalField(rec, "estimated_hours")
	if err != nil {
		return LineItem{}, fmt.Errorf("line item %s: %w", rec.Id, err)
	}
	item.Description = rec.GetString("description")
	item.EstimatedHours = hours
	return item, nil
}

// FindProposalLineItems returns the line item records of a proposal in
// display order.
func FindProposalLineItems(app core.App, proposalID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"proposal_line_items",
		"proposal = {:proposalId}",
		"sort_order",
		0,
		0,
		map[string]any{"proposalId": proposalID},
	)
	if err != nil {
		return nil, fmt.Errorf("query line items for proposal %s: %w", proposalID, err)
	}
	return records, nil
}

// PriceProposal loads a proposal's line items and computes its summary
// without saving anything.
func PriceProposal(app core.App, proposal *core.Record) (ProposalSummary, []LineItem, error) {
	terms, err := ProposalTermsFromRecord(proposal)
	if err != nil {
		return ProposalSummary{}, nil, err
	}
	records, err := FindProposalLineItems(app, proposal.Id)
	if err != nil {
		return ProposalSummary{}, nil, err
	}
	items := make([]LineItem, 0, len(records))
	for _, rec := range records {
		item, err := LineItemFromRecord(rec, terms.Currency)
		if err != nil {
			return ProposalSummary{}, nil, err
		}
		items = append(items, item)
	}
	summary, err := CalcProposal(items, terms.TaxRate, terms.DiscountPercent)
	if err != nil {
		return ProposalSummary{}, nil, err
	}
	if len(items) == 0 {
		// An empty proposal still reports zeros in its own currency.
		summary = zeroSummary(terms)
	}
	return summary, items, nil
}

func zeroSummary(terms ProposalTerms) ProposalSummary {
	zero := Zero(terms.Currency)
	return ProposalSummary{
		Subtotal:           zero,
		DiscountPercent:    terms.DiscountPercent,
		DiscountAmount:     zero,
		DiscountedSubtotal: zero,
		TaxRate:            terms.TaxRate,
		TaxAmount:          zero,
		Total:              zero,
		TotalHours:         decimal.Zero,
	}
}

// RecalculateProposal prices the proposal and stores the derived totals on
// its record. Running it twice on unchanged data writes the same values.
func RecalculateProposal(app core.App, proposalID string) (ProposalSummary, error) {
	proposal, err := app.FindRecordById("proposals", proposalID)
	if err != nil {
		return ProposalSummary{}, fmt.Errorf("proposal %s not found: %w", proposalID, err)
	}
	summary, _, err := PriceProposal(app, proposal)
	if err != nil {
		return ProposalSummary{}, err
	}

	proposal.Set("subtotal_cents", summary.Subtotal.Amount)
	proposal.Set("discount_cents", summary.DiscountAmount.Amount)
	proposal.Set("tax_cents", summary.TaxAmount.Amount)
	proposal.Set("total_cents", summary.Total.Amount)
	proposal.Set("total_hours", summary.TotalHours.String())
	if err := app.Save(proposal); err != nil {
		return ProposalSummary{}, fmt.Errorf("save totals for proposal %s: %w", proposalID, err)
	}
	return summary, nil
}
