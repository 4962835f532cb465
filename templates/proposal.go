package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"sitewizard/services"
)

// ProposalLineItemRow is a rendered line item with its record ID.
type ProposalLineItemRow struct {
	ID   string
	Item services.LineItem
}

// ProposalViewData backs the proposal line item section.
type ProposalViewData struct {
	ID             string
	ProposalNumber string
	Title          string
	ClientName     string
	Status         string
	Items          []ProposalLineItemRow
	Summary        services.ProposalSummary
	Errors         map[string]string
}

// ProposalLineItemsSection renders the line item table and totals as one
// swappable fragment.
func ProposalLineItemsSection(data ProposalViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="proposal-line-items" data-proposal="%s">`, templ.EscapeString(data.ID))
		fmt.Fprintf(&b, `<h2>%s <small>%s</small></h2>`, templ.EscapeString(data.Title), templ.EscapeString(data.ProposalNumber))

		b.WriteString(`<table class="line-items"><thead><tr><th>#</th><th>Description</th><th>Qty</th><th>Hours</th><th>Unit price</th><th>Total</th><th></th></tr></thead><tbody>`)
		for i, row := range data.Items {
			hours := ""
			if !row.Item.EstimatedHours.IsZero() {
				hours = row.Item.EstimatedHours.String()
			}
			fmt.Fprintf(&b, `<tr id="line-item-%s"><td>%d</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td>`+
				`<td><button hx-delete="/proposals/%s/line-items/%s" hx-target="#proposal-line-items" hx-swap="outerHTML">Remove</button></td></tr>`,
				templ.EscapeString(row.ID), i+1, templ.EscapeString(row.Item.Description), row.Item.Quantity,
				templ.EscapeString(hours), templ.EscapeString(row.Item.UnitPrice.String()), templ.EscapeString(row.Item.Total.String()),
				templ.EscapeString(data.ID), templ.EscapeString(row.ID))
		}
		if len(data.Items) == 0 {
			b.WriteString(`<tr class="empty"><td colspan="7">No line items yet</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)

		for field, msg := range data.Errors {
			fmt.Fprintf(&b, `<p class="field-error" data-field="%s">%s</p>`, templ.EscapeString(field), templ.EscapeString(msg))
		}

		if err := ProposalTotals(data.Summary).Render(ctx, &b); err != nil {
			return err
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ProposalTotals renders the subtotal/discount/tax/total block.
func ProposalTotals(s services.ProposalSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<dl id="proposal-totals" class="totals">`)
		line := func(label string, m services.Money) {
			fmt.Fprintf(&b, `<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(label), templ.EscapeString(m.String()))
		}
		line("Subtotal", s.Subtotal)
		if !s.DiscountAmount.IsZero() {
			line(fmt.Sprintf("Discount (%s%%)", s.DiscountPercent.String()), s.DiscountAmount)
		}
		line(fmt.Sprintf("Tax (%s%%)", s.TaxRate.Shift(2).String()), s.TaxAmount)
		line("Total", s.Total)
		if s.AverageHourlyRate != nil {
			fmt.Fprintf(&b, `<dt>Hours</dt><dd>%s</dd><dt>Average rate</dt><dd>%s/h</dd>`,
				templ.EscapeString(s.TotalHours.String()), templ.EscapeString(s.AverageHourlyRate.String()))
		}
		b.WriteString(`</dl>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
