package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	mutedColor  = &props.Color{Red: 80, Green: 80, Blue: 80}
	footerColor = &props.Color{Red: 140, Green: 140, Blue: 140}
)

// GeneratePDF creates a proposal PDF using maroto/v2 and returns the raw bytes.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addClientBlock(m, data)
	addTableHeader(m)
	for _, r := range data.Rows {
		addTableRow(m, r)
	}
	addSummary(m, data)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, proposal number and date.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Proposal: %s", data.ProposalNumber), props.Text{
					Size:  9,
					Align: align.Left,
					Color: mutedColor,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: mutedColor,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// addClientBlock adds the "Prepared for" lines.
func addClientBlock(m core.Maroto, data ExportData) {
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}
	value := props.Text{Size: 9, Align: align.Left}

	m.AddRows(
		row.New(6).Add(
			col.New(3).Add(text.New("Prepared for", label)),
			col.New(9).Add(text.New(data.ClientName, value)),
		),
	)
	if data.ClientEmail != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(3).Add(text.New("Email", label)),
				col.New(9).Add(text.New(data.ClientEmail, value)),
			),
		)
	}
	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row for the line item table.
func addTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", headerText)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Hours", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Unit Price", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Total", headerText)).WithStyle(&headerCell),
		),
	)
}

// addTableRow adds a single line item row.
func addTableRow(m core.Maroto, r ExportRow) {
	baseText := props.Text{Size: 8, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	m.AddRows(
		row.New(7).Add(
			col.New(1).Add(text.New(r.Index, baseText)),
			col.New(5).Add(text.New(r.Description, leftText)),
			col.New(1).Add(text.New(fmt.Sprintf("%d", r.Quantity), rightText)),
			col.New(1).Add(text.New(r.EstimatedHours, rightText)),
			col.New(2).Add(text.New(FormatMoney(r.UnitPrice), rightText)),
			col.New(2).Add(text.New(FormatMoney(r.Total), rightText)),
		),
	)
}

// addSummary adds subtotal, discount, tax and total lines.
func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	line := func(label string, amount Money) {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatMoney(amount), valueStyle)).WithStyle(summaryCell),
			),
		)
	}

	s := data.Summary
	line("Subtotal", s.Subtotal)
	if !s.DiscountAmount.IsZero() {
		line(fmt.Sprintf("Discount (%s%%)", s.DiscountPercent.String()), s.DiscountAmount)
	}
	line(fmt.Sprintf("Tax (%s%%)", s.TaxRate.Mul(hundred).String()), s.TaxAmount)
	line("Total", s.Total)

	if data.AmountInWords != "" {
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(text.New("Amount in words: "+data.AmountInWords, props.Text{
					Size:  8,
					Style: fontstyle.Italic,
					Align: align.Left,
					Top:   2,
				})),
			),
		)
	}

	if !s.TotalHours.IsZero() {
		effort := fmt.Sprintf("Estimated effort: %s hours", s.TotalHours.String())
		if s.AverageHourlyRate != nil {
			effort += fmt.Sprintf(" (average %s/hour)", FormatMoney(*s.AverageHourlyRate))
		}
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(text.New(effort, props.Text{Size: 8, Align: align.Left, Color: mutedColor})),
			),
		)
	}

	if data.Notes != "" {
		m.AddRows(row.New(4))
		m.AddRows(
			row.New(12).Add(
				col.New(12).Add(text.New(data.Notes, props.Text{Size: 8, Align: align.Left})),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", data.GeneratedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: footerColor,
					},
				),
			),
		),
	)
}
