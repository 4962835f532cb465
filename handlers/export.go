package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitewizard/services"
)

// buildExportData prices a proposal and flattens it for export.
func buildExportData(app core.App, proposalID string) (services.ExportData, error) {
	proposal, err := app.FindRecordById("proposals", proposalID)
	if err != nil {
		return services.ExportData{}, fmt.Errorf("proposal not found: %w", err)
	}

	summary, items, err := services.PriceProposal(app, proposal)
	if err != nil {
		return services.ExportData{}, fmt.Errorf("price proposal: %w", err)
	}

	return services.ExportData{
		ProposalNumber: proposal.GetString("proposal_number"),
		Title:          proposal.GetString("title"),
		ClientName:     proposal.GetString("client_name"),
		ClientEmail:    proposal.GetString("client_email"),
		Status:         proposal.GetString("status"),
		CreatedDate:    proposal.GetDateTime("created").Time().Format("02 Jan 2006"),
		GeneratedDate:  time.Now().Format("02 Jan 2006 15:04"),
		Rows:           services.NewExportRows(items),
		Summary:        summary,
		AmountInWords:  services.AmountToWords(summary.Total),
		Notes:          proposal.GetString("notes"),
	}, nil
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// exportFilename names a download after the proposal number, falling back to
// the title.
func exportFilename(data services.ExportData, ext string) string {
	base := data.ProposalNumber
	if base == "" {
		base = data.Title
	}
	return fmt.Sprintf("Proposal_%s.%s", sanitizeFilename(base), ext)
}

// HandleProposalExportExcel returns a handler that generates and downloads an Excel file for a proposal.
func HandleProposalExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return e.String(http.StatusBadRequest, "Missing proposal ID")
		}

		data, err := buildExportData(app, id)
		if err != nil {
			log.Printf("export: proposal %s: %v", id, err)
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		xlsxBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export: failed to generate Excel: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "xlsx")))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleProposalExportPDF returns a handler that generates and downloads a PDF file for a proposal.
func HandleProposalExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return e.String(http.StatusBadRequest, "Missing proposal ID")
		}

		data, err := buildExportData(app, id)
		if err != nil {
			log.Printf("export: proposal %s: %v", id, err)
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		pdfBytes, err := services.GeneratePDF(data)
		if err != nil {
			log.Printf("export: failed to generate PDF: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF")
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "pdf")))
		e.Response.Write(pdfBytes)
		return nil
	}
}
