package handlers

import (
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"sitewizard/config"
	"sitewizard/services"
	"sitewizard/templates"
)

var proposalStatuses = []string{"draft", "sent", "accepted", "declined"}

// proposalInput is the parsed proposal form.
type proposalInput struct {
	Title           string
	ClientName      string
	ClientEmail     string
	Status          string
	Notes           string
	Currency        services.Currency
	TaxRate         decimal.Decimal
	DiscountPercent decimal.Decimal
}

// parseProposalForm reads and validates the proposal form. Empty tax rate,
// discount and currency fall back to the configured defaults.
func parseProposalForm(e *core.RequestEvent, settings config.Config) (proposalInput, map[string]string) {
	in := proposalInput{
		Title:       strings.TrimSpace(e.Request.FormValue("title")),
		ClientName:  strings.TrimSpace(e.Request.FormValue("client_name")),
		ClientEmail: strings.TrimSpace(e.Request.FormValue("client_email")),
		Status:      strings.TrimSpace(e.Request.FormValue("status")),
		Notes:       strings.TrimSpace(e.Request.FormValue("notes")),
	}
	errors := make(map[string]string)

	if in.Title == "" {
		errors["title"] = "Title is required"
	}
	if in.ClientName == "" {
		errors["client_name"] = "Client name is required"
	}
	if in.Status == "" {
		in.Status = "draft"
	} else if !slices.Contains(proposalStatuses, in.Status) {
		errors["status"] = "Unknown status"
	}

	currencyStr := strings.TrimSpace(e.Request.FormValue("currency"))
	if currencyStr == "" {
		currencyStr = settings.Currency
	}
	currency, err := services.ParseCurrency(currencyStr)
	if err != nil {
		errors["currency"] = "Unsupported currency"
	}
	in.Currency = currency

	in.TaxRate = settings.TaxRate
	if raw := strings.TrimSpace(e.Request.FormValue("tax_rate")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			errors["tax_rate"] = "Tax rate must be between 0 and 1"
		} else {
			in.TaxRate = rate
		}
	}

	in.DiscountPercent = decimal.Zero
	if raw := strings.TrimSpace(e.Request.FormValue("discount_percent")); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			errors["discount_percent"] = "Discount must be between 0 and 100"
		} else {
			in.DiscountPercent = pct
		}
	}

	return in, errors
}

func applyProposalInput(record *core.Record, in proposalInput) {
	record.Set("title", in.Title)
	record.Set("client_name", in.ClientName)
	record.Set("client_email", in.ClientEmail)
	record.Set("status", in.Status)
	record.Set("notes", in.Notes)
	record.Set("currency", string(in.Currency))
	record.Set("tax_rate", in.TaxRate.String())
	record.Set("discount_percent", in.DiscountPercent.String())
}

// buildProposalViewData prices a proposal and assembles its view model.
func buildProposalViewData(app core.App, proposal *core.Record) (templates.ProposalViewData, error) {
	summary, items, err := services.PriceProposal(app, proposal)
	if err != nil {
		return templates.ProposalViewData{}, err
	}
	records, err := services.FindProposalLineItems(app, proposal.Id)
	if err != nil {
		return templates.ProposalViewData{}, err
	}

	rows := make([]templates.ProposalLineItemRow, 0, len(items))
	for i, item := range items {
		rows = append(rows, templates.ProposalLineItemRow{ID: records[i].Id, Item: item})
	}

	return templates.ProposalViewData{
		ID:             proposal.Id,
		ProposalNumber: proposal.GetString("proposal_number"),
		Title:          proposal.GetString("title"),
		ClientName:     proposal.GetString("client_name"),
		Status:         proposal.GetString("status"),
		Items:          rows,
		Summary:        summary,
		Errors:         map[string]string{},
	}, nil
}

// proposalJSON is the API representation of a priced proposal.
func proposalJSON(proposal *core.Record, data templates.ProposalViewData) map[string]any {
	items := make([]map[string]any, 0, len(data.Items))
	for _, row := range data.Items {
		items = append(items, map[string]any{
			"id":              row.ID,
			"description":     row.Item.Description,
			"unit_price":      row.Item.UnitPrice,
			"quantity":        row.Item.Quantity,
			"estimated_hours": row.Item.EstimatedHours,
			"total":           row.Item.Total,
		})
	}
	return map[string]any{
		"id":              proposal.Id,
		"proposal_number": data.ProposalNumber,
		"title":           data.Title,
		"client_name":     data.ClientName,
		"client_email":    proposal.GetString("client_email"),
		"status":          data.Status,
		"notes":           proposal.GetString("notes"),
		"site_request":    proposal.GetString("site_request"),
		"items":           items,
		"summary":         data.Summary,
	}
}

// renderProposal responds with the line item section for HTMX and JSON
// otherwise.
func renderProposal(e *core.RequestEvent, app core.App, proposal *core.Record, status int, fieldErrors map[string]string) error {
	data, err := buildProposalViewData(app, proposal)
	if err != nil {
		log.Printf("proposals: renderProposal: %v", err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	if fieldErrors != nil {
		data.Errors = fieldErrors
	}
	if isHTMX(e) {
		e.Response.WriteHeader(status)
		return templates.ProposalLineItemsSection(data).Render(e.Request.Context(), e.Response)
	}
	return e.JSON(status, proposalJSON(proposal, data))
}

// HandleProposalList handles GET /proposals
func HandleProposalList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("proposals", "id != ''", "-created", 0, 0)
		if err != nil {
			log.Printf("proposals: HandleProposalList: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			currency, err := services.ParseCurrency(rec.GetString("currency"))
			if err != nil {
				log.Printf("proposals: HandleProposalList: proposal %s: %v", rec.Id, err)
				continue
			}
			out = append(out, map[string]any{
				"id":              rec.Id,
				"proposal_number": rec.GetString("proposal_number"),
				"title":           rec.GetString("title"),
				"client_name":     rec.GetString("client_name"),
				"status":          rec.GetString("status"),
				"total":           services.NewMoney(int64(rec.GetInt("total_cents")), currency),
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}

// createProposalRecord assigns the next proposal number and saves a new
// proposal from in.
func createProposalRecord(app *pocketbase.PocketBase, in proposalInput, siteRequestID string) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		return nil, fmt.Errorf("find proposals collection: %w", err)
	}
	number, err := services.GenerateProposalNumber(app, time.Now())
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(col)
	record.Set("proposal_number", number)
	record.Set("site_request", siteRequestID)
	applyProposalInput(record, in)
	record.Set("subtotal_cents", 0)
	record.Set("discount_cents", 0)
	record.Set("tax_cents", 0)
	record.Set("total_cents", 0)
	record.Set("total_hours", "0")

	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("save proposal: %w", err)
	}
	return record, nil
}

// HandleProposalCreate handles POST /proposals
func HandleProposalCreate(app *pocketbase.PocketBase, settings config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		in, errors := parseProposalForm(e, settings)
		if len(errors) > 0 {
			return FieldErrors(e, "Please fix the errors below", errors)
		}

		record, err := createProposalRecord(app, in, "")
		if err != nil {
			log.Printf("proposals: HandleProposalCreate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Proposal created")
		return renderProposal(e, app, record, http.StatusCreated, nil)
	}
}

// HandleProposalView handles GET /proposals/{id}
func HandleProposalView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		proposal, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}
		return renderProposal(e, app, proposal, http.StatusOK, nil)
	}
}

// HandleProposalUpdate handles POST /proposals/{id}/save
// Updates the proposal terms and re-derives the stored totals.
func HandleProposalUpdate(app *pocketbase.PocketBase, settings config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		proposal, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		in, errors := parseProposalForm(e, settings)
		if len(errors) > 0 {
			return FieldErrors(e, "Please fix the errors below", errors)
		}

		applyProposalInput(proposal, in)
		if err := app.Save(proposal); err != nil {
			log.Printf("proposals: HandleProposalUpdate: could not save proposal %s: %v", id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		if _, err := services.RecalculateProposal(app, id); err != nil {
			log.Printf("proposals: HandleProposalUpdate: recalculate %s: %v", id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		proposal, err = app.FindRecordById("proposals", id)
		if err != nil {
			log.Printf("proposals: HandleProposalUpdate: reload %s: %v", id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Proposal updated")
		return renderProposal(e, app, proposal, http.StatusOK, nil)
	}
}

// HandleProposalDelete handles DELETE /proposals/{id}
// Line items are removed by the cascading relation.
func HandleProposalDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		proposal, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}

		if err := app.Delete(proposal); err != nil {
			log.Printf("proposals: HandleProposalDelete: could not delete proposal %s: %v", id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Proposal deleted")
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleProposalFromSiteRequest handles POST /site-requests/{id}/proposal
// Drafts a proposal from a wizard submission: the package becomes the first
// line item and each selected add-on one more.
func HandleProposalFromSiteRequest(app *pocketbase.PocketBase, settings config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		request, err := app.FindRecordById(SiteRequestsCollection, id)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Site request not found")
		}

		pkgRecord, err := app.FindRecordById("packages", request.GetString("package"))
		if err != nil {
			log.Printf("proposals: HandleProposalFromSiteRequest: package for request %s: %v", id, err)
			return ErrorToast(e, http.StatusUnprocessableEntity, "The requested package no longer exists")
		}
		pkg, err := services.PackageFromRecord(pkgRecord)
		if err != nil {
			log.Printf("proposals: HandleProposalFromSiteRequest: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		var addonIDs []string
		if err := request.UnmarshalJSONField("addon_ids", &addonIDs); err != nil {
			log.Printf("proposals: HandleProposalFromSiteRequest: addon_ids of %s: %v", id, err)
		}
		var addons []services.Addon
		for _, addonID := range addonIDs {
			rec, err := app.FindRecordById("addons", addonID)
			if err != nil {
				log.Printf("proposals: HandleProposalFromSiteRequest: add-on %s skipped: %v", addonID, err)
				continue
			}
			addon, err := services.AddonFromRecord(rec)
			if err != nil {
				log.Printf("proposals: HandleProposalFromSiteRequest: %v", err)
				continue
			}
			addons = append(addons, addon)
		}

		in := proposalInput{
			Title:           fmt.Sprintf("%s website", request.GetString("business_name")),
			ClientName:      request.GetString("contact_name"),
			ClientEmail:     request.GetString("contact_email"),
			Status:          "draft",
			Currency:        pkg.BasePrice.Currency,
			TaxRate:         settings.TaxRate,
			DiscountPercent: decimal.Zero,
		}

		var proposal *core.Record
		err = app.RunInTransaction(func(txApp core.App) error {
			col, err := txApp.FindCollectionByNameOrId("proposals")
			if err != nil {
				return err
			}
			number, err := services.GenerateProposalNumber(txApp, time.Now())
			if err != nil {
				return err
			}
			proposal = core.NewRecord(col)
			proposal.Set("proposal_number", number)
			proposal.Set("site_request", request.Id)
			applyProposalInput(proposal, in)
			if err := txApp.Save(proposal); err != nil {
				return err
			}

			itemCol, err := txApp.FindCollectionByNameOrId("proposal_line_items")
			if err != nil {
				return err
			}
			sortOrder := 1
			addItem := func(description string, price services.Money) error {
				if price.Currency != pkg.BasePrice.Currency {
					return fmt.Errorf("%s: %w", description, services.ErrCurrencyMismatch)
				}
				item := core.NewRecord(itemCol)
				item.Set("proposal", proposal.Id)
				item.Set("sort_order", sortOrder)
				item.Set("description", description)
				item.Set("unit_price_cents", price.Amount)
				item.Set("quantity", 1)
				item.Set("estimated_hours", "")
				sortOrder++
				return txApp.Save(item)
			}

			if err := addItem(pkg.Name+" package", pkg.BasePrice); err != nil {
				return err
			}
			for _, a := range addons {
				if err := addItem(a.Name, a.Price); err != nil {
					return err
				}
			}

			if _, err := services.RecalculateProposal(txApp, proposal.Id); err != nil {
				return err
			}
			request.Set("status", "proposal_sent")
			return txApp.Save(request)
		})
		if err != nil {
			log.Printf("proposals: HandleProposalFromSiteRequest: request %s: %v", id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		proposal, err = app.FindRecordById("proposals", proposal.Id)
		if err != nil {
			log.Printf("proposals: HandleProposalFromSiteRequest: reload: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Proposal drafted")
		return renderProposal(e, app, proposal, http.StatusCreated, nil)
	}
}
