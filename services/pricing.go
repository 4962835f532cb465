// Package services provides pricing, formatting and export functions for
// site-builder estimates and proposals.
package services

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// LineItem is a priced unit within a proposal.
type LineItem struct {
	Description    string          `json:"description,omitempty"`
	UnitPrice      Money           `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	Total          Money           `json:"total"`
}

// CalcLineItem returns the line item with Total = UnitPrice × Quantity.
// Quantities below one and negative unit prices are rejected, not clamped.
func CalcLineItem(unitPrice Money, quantity int) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, invalid("quantity", quantity, ErrInvalidQuantity)
	}
	if unitPrice.IsNegative() {
		return LineItem{}, invalid("unit_price", unitPrice.Amount, ErrNegativeAmount)
	}
	total, err := unitPrice.MulInt(int64(quantity))
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Total:     total,
	}, nil
}

// ProposalTotals holds subtotal, tax and total for a set of line items.
// Total == Subtotal + TaxAmount always holds exactly.
type ProposalTotals struct {
	Subtotal  Money           `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount Money           `json:"tax_amount"`
	Total     Money           `json:"total"`
}

func validateTaxRate(taxRate decimal.Decimal) error {
	if taxRate.IsNegative() || taxRate.GreaterThan(one) {
		return invalid("tax_rate", taxRate.String(), ErrInvalidTaxRate)
	}
	return nil
}

// sumLineItems recomputes every item total from unit price and quantity and
// adds them up in integer minor units. Stored Total values are ignored so a
// recalculation never depends on stale data.
func sumLineItems(items []LineItem) (Money, error) {
	currency := DefaultCurrency
	if len(items) > 0 {
		currency = items[0].UnitPrice.Currency
	}
	subtotal := Zero(currency)
	for _, item := range items {
		calc, err := CalcLineItem(item.UnitPrice, item.Quantity)
		if err != nil {
			return Money{}, err
		}
		if subtotal, err = subtotal.Add(calc.Total); err != nil {
			return Money{}, err
		}
	}
	return subtotal, nil
}

// CalcProposalTotals sums the line items and applies taxRate (a fraction in
// [0,1]) once on the subtotal, rounding half away from zero.
func CalcProposalTotals(items []LineItem, taxRate decimal.Decimal) (ProposalTotals, error) {
	if err := validateTaxRate(taxRate); err != nil {
		return ProposalTotals{}, err
	}
	subtotal, err := sumLineItems(items)
	if err != nil {
		return ProposalTotals{}, err
	}
	return totalsFromSubtotal(subtotal, taxRate)
}

func totalsFromSubtotal(subtotal Money, taxRate decimal.Decimal) (ProposalTotals, error) {
	tax := subtotal.MulDecimal(taxRate)
	total, err := subtotal.Add(tax)
	if err != nil {
		return ProposalTotals{}, err
	}
	return ProposalTotals{
		Subtotal:  subtotal,
		TaxRate:   taxRate,
		TaxAmount: tax,
		Total:     total,
	}, nil
}

// CalcTotalHours returns Σ EstimatedHours × Quantity. Items without an
// estimate contribute nothing.
func CalcTotalHours(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EstimatedHours.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CalcAverageHourlyRate returns totalAmount / totalHours rounded to a minor
// unit, or nil when there are no hours to divide by.
func CalcAverageHourlyRate(totalAmount Money, totalHours decimal.Decimal) *Money {
	if totalHours.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	rate := Money{
		Amount:   roundHalfUp(decimal.NewFromInt(totalAmount.Amount).Div(totalHours)),
		Currency: totalAmount.Currency,
	}
	return &rate
}

// ApplyDiscount returns amount × (1 − percentage/100) rounded to a minor
// unit. percentage must lie in [0,100].
func ApplyDiscount(amount Money, percentage decimal.Decimal) (Money, error) {
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return Money{}, invalid("percentage", percentage.String(), ErrInvalidPercentage)
	}
	remaining := hundred.Sub(percentage)
	return Money{
		Amount:   roundHalfUp(decimal.NewFromInt(amount.Amount).Mul(remaining).Div(hundred)),
		Currency: amount.Currency,
	}, nil
}

// ProposalSummary is the full priced view of a proposal: a discount taken
// off the subtotal, tax on what remains, plus effort metrics.
type ProposalSummary struct {
	Subtotal           Money           `json:"subtotal"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	DiscountAmount     Money           `json:"discount_amount"`
	DiscountedSubtotal Money           `json:"discounted_subtotal"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	TaxAmount          Money           `json:"tax_amount"`
	Total              Money           `json:"total"`
	TotalHours         decimal.Decimal `json:"total_hours"`
	AverageHourlyRate  *Money          `json:"average_hourly_rate"`
}

// CalcProposal prices a proposal end to end. It is a pure function of its
// inputs, so recalculating an unchanged proposal always yields the same
// summary.
func CalcProposal(items []LineItem, taxRate, discountPercent decimal.Decimal) (ProposalSummary, error) {
	if err := validateTaxRate(taxRate); err != nil {
		return ProposalSummary{}, err
	}
	subtotal, err := sumLineItems(items)
	if err != nil {
		return ProposalSummary{}, err
	}
	discounted, err := ApplyDiscount(subtotal, discountPercent)
	if err != nil {
		return ProposalSummary{}, err
	}
	discount, err := subtotal.Sub(discounted)
	if err != nil {
		return ProposalSummary{}, err
	}
	totals, err := totalsFromSubtotal(discounted, taxRate)
	if err != nil {
		return ProposalSummary{}, err
	}
	hours := CalcTotalHours(items)

	return ProposalSummary{
		Subtotal:           subtotal,
		DiscountPercent:    discountPercent,
		DiscountAmount:     discount,
		DiscountedSubtotal: discounted,
		TaxRate:            taxRate,
		TaxAmount:          totals.TaxAmount,
		Total:              totals.Total,
		TotalHours:         hours,
		AverageHourlyRate:  CalcAverageHourlyRate(totals.Total, hours),
	}, nil
}
