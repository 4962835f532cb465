package handlers

import (
	stderrors "errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"sitewizard/services"
)

// getNextSortOrder returns the sort_order for a new line item of proposalID.
func getNextSortOrder(app *pocketbase.PocketBase, proposalID string) int {
	existing, err := app.FindRecordsByFilter(
		"proposal_line_items",
		"proposal = {:proposalId}",
		"-sort_order",
		1,
		0,
		map[string]any{"proposalId": proposalID},
	)
	if err != nil || len(existing) == 0 {
		return 1
	}
	return existing[0].GetInt("sort_order") + 1
}

// lineItemInput is the parsed line item form.
type lineItemInput struct {
	Description    string
	UnitPrice      services.Money
	Quantity       int
	EstimatedHours decimal.Decimal
}

// parseLineItemForm validates the line item form. Unit price is in major
// units of the proposal's currency, e.g. "1250.00".
func parseLineItemForm(e *core.RequestEvent, currency services.Currency) (lineItemInput, map[string]string) {
	var in lineItemInput
	errors := make(map[string]string)

	in.Description = strings.TrimSpace(e.Request.FormValue("description"))
	if in.Description == "" {
		errors["description"] = "Description is required"
	}

	price, err := services.ParseMoney(strings.TrimSpace(e.Request.FormValue("unit_price")), currency)
	switch {
	case err != nil:
		errors["unit_price"] = "Enter a price with at most two decimals"
	case price.IsNegative():
		errors["unit_price"] = "Price must be zero or greater"
	case price.Amount > services.MaxStoredAmount:
		errors["unit_price"] = "Price is too large"
	}
	in.UnitPrice = price

	qty, err := strconv.Atoi(strings.TrimSpace(e.Request.FormValue("quantity")))
	if err != nil || qty <= 0 {
		errors["quantity"] = "Quantity must be a whole number greater than zero"
	}
	in.Quantity = qty

	if errors["unit_price"] == "" && errors["quantity"] == "" {
		if _, err := services.CalcLineItem(in.UnitPrice, in.Quantity); err != nil {
			errors["quantity"] = "Price times quantity is too large"
		}
	}

	in.EstimatedHours = decimal.Zero
	if raw := strings.TrimSpace(e.Request.FormValue("estimated_hours")); raw != "" {
		hours, err := decimal.NewFromString(raw)
		if err != nil || hours.IsNegative() {
			errors["estimated_hours"] = "Hours must be zero or greater"
		} else {
			in.EstimatedHours = hours
		}
	}

	return in, errors
}

func applyLineItemInput(record *core.Record, in lineItemInput) {
	record.Set("description", in.Description)
	record.Set("unit_price_cents", in.UnitPrice.Amount)
	record.Set("quantity", in.Quantity)
	if in.EstimatedHours.IsZero() {
		record.Set("estimated_hours", "")
	} else {
		record.Set("estimated_hours", in.EstimatedHours.String())
	}
}

// loadProposalForEdit finds the proposal and its currency.
func loadProposalForEdit(app *pocketbase.PocketBase, id string) (*core.Record, services.Currency, error) {
	proposal, err := app.FindRecordById("proposals", id)
	if err != nil {
		return nil, "", err
	}
	currency, err := services.ParseCurrency(proposal.GetString("currency"))
	if err != nil {
		return nil, "", err
	}
	return proposal, currency, nil
}

// saveLineItem saves record and the proposal's new totals in one
// transaction. A sum that no longer fits is returned as ErrAmountOverflow
// and nothing is written.
func saveLineItem(app *pocketbase.PocketBase, record *core.Record, proposalID string) error {
	return app.RunInTransaction(func(txApp core.App) error {
		if err := txApp.Save(record); err != nil {
			return err
		}
		_, err := services.RecalculateProposal(txApp, proposalID)
		return err
	})
}

// lineItemSaveFailed maps a saveLineItem error to a response.
func lineItemSaveFailed(e *core.RequestEvent, app *pocketbase.PocketBase, proposal *core.Record, handler string, err error) error {
	if stderrors.Is(err, services.ErrAmountOverflow) {
		return lineItemErrors(e, app, proposal, map[string]string{
			"quantity": "The proposal total is too large",
		})
	}
	log.Printf("proposal_line_items: %s: could not save line item: %v", handler, err)
	return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// renderSavedProposal reloads the proposal after a committed change.
func renderSavedProposal(e *core.RequestEvent, app *pocketbase.PocketBase, proposalID string, status int) error {
	proposal, err := app.FindRecordById("proposals", proposalID)
	if err != nil {
		log.Printf("proposal_line_items: reload %s: %v", proposalID, err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	return renderProposal(e, app, proposal, status, nil)
}

// recalculateAndRender stores fresh totals and renders the proposal.
func recalculateAndRender(e *core.RequestEvent, app *pocketbase.PocketBase, proposalID string, status int) error {
	if _, err := services.RecalculateProposal(app, proposalID); err != nil {
		log.Printf("proposal_line_items: recalculate %s: %v", proposalID, err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	return renderSavedProposal(e, app, proposalID, status)
}

// lineItemErrors re-renders the section with field errors for HTMX, or
// returns 422 JSON.
func lineItemErrors(e *core.RequestEvent, app *pocketbase.PocketBase, proposal *core.Record, errors map[string]string) error {
	if isHTMX(e) {
		SetToast(e, "warning", "Please fix the errors below")
		return renderProposal(e, app, proposal, http.StatusOK, errors)
	}
	return FieldErrors(e, "Please fix the errors below", errors)
}

// HandleProposalAddLineItem handles POST /proposals/{id}/line-items
func HandleProposalAddLineItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposalID := e.Request.PathValue("id")
		proposal, currency, err := loadProposalForEdit(app, proposalID)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		in, errors := parseLineItemForm(e, currency)
		if len(errors) > 0 {
			return lineItemErrors(e, app, proposal, errors)
		}

		col, err := app.FindCollectionByNameOrId("proposal_line_items")
		if err != nil {
			log.Printf("proposal_line_items: HandleProposalAddLineItem: could not find collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(col)
		record.Set("proposal", proposalID)
		record.Set("sort_order", getNextSortOrder(app, proposalID))
		applyLineItemInput(record, in)

		if err := saveLineItem(app, record, proposalID); err != nil {
			return lineItemSaveFailed(e, app, proposal, "HandleProposalAddLineItem", err)
		}

		SetToast(e, "success", "Line item added")
		return renderSavedProposal(e, app, proposalID, http.StatusCreated)
	}
}

// HandleProposalUpdateLineItem handles PATCH /proposals/{id}/line-items/{itemId}
func HandleProposalUpdateLineItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposalID := e.Request.PathValue("id")
		itemID := e.Request.PathValue("itemId")

		proposal, currency, err := loadProposalForEdit(app, proposalID)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}
		record, err := app.FindRecordById("proposal_line_items", itemID)
		if err != nil || record.GetString("proposal") != proposalID {
			return ErrorToast(e, http.StatusNotFound, "Line item not found")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		in, errors := parseLineItemForm(e, currency)
		if len(errors) > 0 {
			return lineItemErrors(e, app, proposal, errors)
		}

		applyLineItemInput(record, in)
		if err := saveLineItem(app, record, proposalID); err != nil {
			return lineItemSaveFailed(e, app, proposal, "HandleProposalUpdateLineItem", err)
		}

		SetToast(e, "success", "Line item updated")
		return renderSavedProposal(e, app, proposalID, http.StatusOK)
	}
}

// HandleProposalDeleteLineItem handles DELETE /proposals/{id}/line-items/{itemId}
func HandleProposalDeleteLineItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposalID := e.Request.PathValue("id")
		itemID := e.Request.PathValue("itemId")

		record, err := app.FindRecordById("proposal_line_items", itemID)
		if err != nil || record.GetString("proposal") != proposalID {
			return ErrorToast(e, http.StatusNotFound, "Line item not found")
		}

		if err := app.Delete(record); err != nil {
			log.Printf("proposal_line_items: HandleProposalDeleteLineItem: could not delete line item %s: %v", itemID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Line item removed")
		return recalculateAndRender(e, app, proposalID, http.StatusOK)
	}
}

// HandleProposalRecalculate handles POST /proposals/{id}/recalculate
func HandleProposalRecalculate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposalID := e.Request.PathValue("id")
		if _, err := app.FindRecordById("proposals", proposalID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Proposal not found")
		}
		return recalculateAndRender(e, app, proposalID, http.StatusOK)
	}
}
