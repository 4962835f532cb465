package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateExcel creates a proposal workbook and returns the file contents.
// Money cells hold numeric major-unit values with a currency number format so
// the sheet stays summable.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are limited to 31 characters.
	sheetName := data.ProposalNumber
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Proposal"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 48, 8, 10, 16, 18}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	currencyFormat := fmt.Sprintf(`"%s"#,##0.00`, data.Summary.Total.Currency.Symbol())

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &currencyFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &currencyFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-4) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	subtitles := []string{
		"Proposal: " + data.ProposalNumber,
		"Client: " + data.ClientName,
		"Date: " + data.CreatedDate,
	}
	for i, s := range subtitles {
		r := fmt.Sprintf("%d", i+2)
		if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge subtitle: %w", err)
		}
		f.SetCellValue(sheetName, "A"+r, sanitizeExcelCell(s))
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, subtitleStyle)
	}

	// ── Row 6: Column Headers ───────────────────────────────────────────

	headers := []string{"#", "Description", "Qty", "Hours", "Unit Price", "Total"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s6", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A6", lastCol+"6", headerStyle)

	// ── Data Rows (starting row 7) ──────────────────────────────────────

	row := 7
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		f.SetCellValue(sheetName, "A"+rowStr, r.Index)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Description))
		f.SetCellValue(sheetName, "C"+rowStr, r.Quantity)
		f.SetCellValue(sheetName, "D"+rowStr, r.EstimatedHours)
		f.SetCellValue(sheetName, "E"+rowStr, r.UnitPrice.Decimal().InexactFloat64())
		f.SetCellValue(sheetName, "F"+rowStr, r.Total.Decimal().InexactFloat64())

		f.SetCellStyle(sheetName, "A"+rowStr, "D"+rowStr, itemStyle)
		f.SetCellStyle(sheetName, "E"+rowStr, "F"+rowStr, moneyStyle)
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++

	s := data.Summary
	lines := []struct {
		label  string
		amount Money
	}{
		{"Subtotal:", s.Subtotal},
		{fmt.Sprintf("Discount (%s%%):", s.DiscountPercent.String()), s.DiscountAmount},
		{fmt.Sprintf("Tax (%s%%):", s.TaxRate.Mul(hundred).String()), s.TaxAmount},
		{"Total:", s.Total},
	}
	for _, l := range lines {
		summaryRow := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "E"+summaryRow, l.label)
		f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryLabelStyle)
		f.SetCellValue(sheetName, "F"+summaryRow, l.amount.Decimal().InexactFloat64())
		f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryValueStyle)
		row++
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1,
		}
	}
	return borders
}
