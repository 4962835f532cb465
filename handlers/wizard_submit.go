package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"sitewizard/services"
	"sitewizard/wizard"
)

// SiteRequestsCollection stores finalized wizard submissions.
const SiteRequestsCollection = "site_requests"

// findSiteRequestBySession returns the request already submitted for key, or
// nil when there is none.
func findSiteRequestBySession(app *pocketbase.PocketBase, key string) (*core.Record, error) {
	rec, err := app.FindFirstRecordByData(SiteRequestsCollection, "session_key", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// createSiteRequest writes the submission with its price snapshot.
func createSiteRequest(app *pocketbase.PocketBase, key string, data map[string]any, pricing wizardPricing) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(SiteRequestsCollection)
	if err != nil {
		return nil, fmt.Errorf("find %s collection: %w", SiteRequestsCollection, err)
	}

	record := core.NewRecord(col)
	record.Set("session_key", key)
	record.Set("package", pricing.Package.ID)
	record.Set("business_name", cast.ToString(data["business_name"]))
	record.Set("contact_name", cast.ToString(data["contact_name"]))
	record.Set("contact_email", cast.ToString(data["contact_email"]))
	record.Set("data", data)
	record.Set("addon_ids", pricing.Selection.IDs())
	record.Set("estimated_total_cents", pricing.Price.EstimatedTotal.Amount)
	record.Set("market_value_cents", pricing.Savings.MarketValue.Amount)
	record.Set("currency", string(pricing.Price.EstimatedTotal.Currency))
	record.Set("status", "new")

	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("save site request: %w", err)
	}
	return record, nil
}

// HandleWizardSubmit handles POST /wizard/submit
// Saves the final step, re-validates every step and turns the session into a
// site_requests record. A session can be submitted at most once.
func HandleWizardSubmit(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		engine, key, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard_submit: HandleWizardSubmit: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		idx, step := engine.CurrentStep()
		if idx == len(engine.Steps())-1 {
			engine.UpdateData(readStepForm(e, step))
		}

		data := engine.State().Data
		allErrors := map[string]string{}
		for i, s := range engine.Steps() {
			errs := validateStepInput(app, s, data)
			engine.SetStepValidation(i, len(errs) == 0)
			for field, msg := range errs {
				allErrors[field] = msg
			}
		}
		if len(allErrors) > 0 {
			if first := firstInvalidStep(engine.State(), len(engine.Steps())); first >= 0 && first != idx {
				_ = engine.GoToStep(first)
			}
			if isHTMX(e) {
				SetToast(e, "warning", "Please complete every step before submitting")
				return renderWizard(e, app, ws, engine, allErrors)
			}
			return FieldErrors(e, "Please complete every step before submitting", allErrors)
		}

		existing, err := findSiteRequestBySession(app, key)
		if err != nil {
			log.Printf("wizard_submit: HandleWizardSubmit: lookup failed: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		if existing != nil {
			return ErrorToast(e, http.StatusConflict, "This request was already submitted")
		}

		engine.SetSubmitting(true)
		engine.SetSubmitError("")

		catalog, err := services.ListActiveAddons(app)
		if err != nil {
			log.Printf("wizard_submit: HandleWizardSubmit: %v", err)
			engine.SetSubmitting(false)
			engine.SetSubmitError("We could not load the add-on catalog")
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		pricing, err := priceWizard(app, ws.Settings, data, catalog)
		if err != nil || pricing.Price == nil || pricing.Savings == nil {
			log.Printf("wizard_submit: HandleWizardSubmit: pricing failed: %v", err)
			engine.SetSubmitting(false)
			engine.SetSubmitError("We could not price your selection")
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record, err := createSiteRequest(app, key, data, pricing)
		if err != nil {
			log.Printf("wizard_submit: HandleWizardSubmit: %v", err)
			engine.SetSubmitting(false)
			engine.SetSubmitError("Your request could not be saved. Please try again.")
			return ErrorToast(e, http.StatusInternalServerError, "Your request could not be saved. Please try again.")
		}

		engine.SetSubmitting(false)
		engine.Reset(nil)
		clearWizardSession(e)
		SetToast(e, "success", "Thanks! We will be in touch shortly.")

		return e.JSON(http.StatusCreated, map[string]any{
			"id":      record.Id,
			"data":    data,
			"price":   pricing.Price,
			"savings": pricing.Savings,
		})
	}
}

// HandleSiteRequestList handles GET /site-requests
func HandleSiteRequestList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter(SiteRequestsCollection, "id != ''", "-created", 0, 0)
		if err != nil {
			log.Printf("wizard_submit: HandleSiteRequestList: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			currency, err := services.ParseCurrency(rec.GetString("currency"))
			if err != nil {
				log.Printf("wizard_submit: HandleSiteRequestList: request %s: %v", rec.Id, err)
				continue
			}
			out = append(out, map[string]any{
				"id":              rec.Id,
				"business_name":   rec.GetString("business_name"),
				"contact_name":    rec.GetString("contact_name"),
				"contact_email":   rec.GetString("contact_email"),
				"status":          rec.GetString("status"),
				"estimated_total": services.NewMoney(int64(rec.GetInt("estimated_total_cents")), currency),
				"market_value":    services.NewMoney(int64(rec.GetInt("market_value_cents")), currency),
				wizard.KeyAddons:  rec.Get("addon_ids"),
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}
