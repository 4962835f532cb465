package services

import "strconv"

// ExportRow represents a single line item in a proposal export.
type ExportRow struct {
	Index          string // "1", "2", ...
	Description    string
	Quantity       int
	UnitPrice      Money
	EstimatedHours string // empty when the item has no estimate
	Total          Money
}

// ExportData holds all data needed for a proposal export.
type ExportData struct {
	ProposalNumber string
	Title          string
	ClientName     string
	ClientEmail    string
	Status         string
	CreatedDate    string
	GeneratedDate  string
	Rows           []ExportRow
	Summary        ProposalSummary
	AmountInWords  string
	Notes          string
}

// NewExportRows numbers and flattens priced line items for export.
func NewExportRows(items []LineItem) []ExportRow {
	rows := make([]ExportRow, 0, len(items))
	for i, item := range items {
		hours := ""
		if !item.EstimatedHours.IsZero() {
			hours = item.EstimatedHours.String()
		}
		rows = append(rows, ExportRow{
			Index:          strconv.Itoa(i + 1),
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			EstimatedHours: hours,
			Total:          item.Total,
		})
	}
	return rows
}
