package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"sitewizard/config"
	"sitewizard/services"
	"sitewizard/templates"
	"sitewizard/wizard"
)

// WizardSessions builds per-request wizard engines over a shared store.
type WizardSessions struct {
	Store    wizard.Store
	Steps    []wizard.Step
	Settings config.Config
}

// NewWizardSessions uses the default site-builder steps.
func NewWizardSessions(store wizard.Store, settings config.Config) *WizardSessions {
	return &WizardSessions{
		Store:    store,
		Steps:    wizard.SiteBuilderSteps(),
		Settings: settings,
	}
}

// Open resolves the visitor's session and rehydrates its engine. Step
// validity is recomputed from the stored data on every request, so it never
// needs to be persisted.
func (ws *WizardSessions) Open(e *core.RequestEvent) (*wizard.Engine, string, error) {
	key := ensureWizardSession(e, ws.Settings)
	engine, err := wizard.New(wizard.Config{
		Steps:            ws.Steps,
		Store:            ws.Store,
		StorageKey:       "wizard:" + key,
		RequireValidStep: ws.Settings.RequireValidStep,
	})
	if err != nil {
		return nil, "", err
	}
	refreshValidation(e.App, engine)
	return engine, key, nil
}

func refreshValidation(app core.App, engine *wizard.Engine) {
	data := engine.State().Data
	for i, step := range engine.Steps() {
		engine.SetStepValidation(i, len(validateStepInput(app, step, data)) == 0)
	}
}

// firstInvalidStep returns the index of the first step before limit that is
// not valid, or -1.
func firstInvalidStep(state wizard.State, limit int) int {
	for i := 0; i < limit && i < state.TotalSteps; i++ {
		if !state.Validation[i] {
			return i
		}
	}
	return -1
}

// wizardPricing is the estimate derived from the collected wizard data.
type wizardPricing struct {
	Package   *services.Package
	Selection services.AddonSelection
	Price     *services.PriceCalculation
	Savings   *services.Savings
}

// priceWizard prices the package and add-ons found in data. A missing or
// unknown package yields no price.
func priceWizard(app *pocketbase.PocketBase, settings config.Config, data map[string]any, catalog []services.Addon) (wizardPricing, error) {
	var out wizardPricing
	out.Selection = services.SelectionFromIDs(catalog, cast.ToStringSlice(data[wizard.KeyAddons]))

	slug := cast.ToString(data[wizard.KeyPackage])
	if slug == "" {
		return out, nil
	}
	pkg, err := services.FindPackageBySlug(app, slug)
	if err != nil {
		log.Printf("wizard: priceWizard: %v", err)
		return out, nil
	}
	out.Package = &pkg

	price, err := services.CalcTotalPrice(pkg.BasePrice, out.Selection)
	if err != nil {
		return out, err
	}
	out.Price = &price

	multiplier := pkg.MarketRateMultiplier
	if multiplier.IsZero() {
		multiplier = settings.MarketMultiplier
	}
	savings, err := services.CalcSavings(price.EstimatedTotal, multiplier)
	if err != nil {
		return out, err
	}
	out.Savings = &savings
	return out, nil
}

// buildWizardPageData assembles the view model for the engine's current step.
func buildWizardPageData(app *pocketbase.PocketBase, ws *WizardSessions, engine *wizard.Engine, fieldErrors map[string]string) (templates.WizardPageData, error) {
	state := engine.State()
	idx, step := engine.CurrentStep()

	packages, err := services.ListPackages(app)
	if err != nil {
		return templates.WizardPageData{}, err
	}
	catalog, err := services.ListActiveAddons(app)
	if err != nil {
		return templates.WizardPageData{}, err
	}
	pricing, err := priceWizard(app, ws.Settings, state.Data, catalog)
	if err != nil {
		return templates.WizardPageData{}, err
	}

	nav := make([]templates.StepNav, 0, state.TotalSteps)
	for i, s := range engine.Steps() {
		nav = append(nav, templates.StepNav{
			Index:   i,
			Title:   s.Title,
			Current: i == idx,
			Valid:   state.Validation[i],
		})
	}

	values := make(map[string]string, len(step.Fields))
	for _, f := range step.Fields {
		if f.Kind != wizard.KindMulti {
			values[f.Name] = cast.ToString(state.Data[f.Name])
		}
	}

	addons := make([]templates.AddonOption, 0, len(catalog))
	for _, a := range catalog {
		addons = append(addons, templates.AddonOption{Addon: a, Selected: pricing.Selection.Contains(a.ID)})
	}

	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}

	return templates.WizardPageData{
		Nav:         nav,
		StepIndex:   idx,
		Step:        step,
		IsFirst:     idx == 0,
		IsLast:      idx == state.TotalSteps-1,
		Values:      values,
		Errors:      fieldErrors,
		Packages:    packages,
		Addons:      addons,
		Price:       pricing.Price,
		Savings:     pricing.Savings,
		SubmitError: state.SubmitError,
	}, nil
}

// renderWizard writes the full page for normal requests and only the
// #wizard section for HTMX swaps.
func renderWizard(e *core.RequestEvent, app *pocketbase.PocketBase, ws *WizardSessions, engine *wizard.Engine, fieldErrors map[string]string) error {
	data, err := buildWizardPageData(app, ws, engine, fieldErrors)
	if err != nil {
		log.Printf("wizard: renderWizard: %v", err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	if isHTMX(e) {
		return templates.WizardStepSection(data).Render(e.Request.Context(), e.Response)
	}
	return templates.WizardPage(data).Render(e.Request.Context(), e.Response)
}

// readStepForm collects the posted values for the fields of step.
func readStepForm(e *core.RequestEvent, step wizard.Step) map[string]any {
	partial := make(map[string]any, len(step.Fields))
	for _, f := range step.Fields {
		if f.Kind == wizard.KindMulti {
			values := e.Request.Form[f.Name]
			if values == nil {
				values = []string{}
			}
			partial[f.Name] = values
			continue
		}
		partial[f.Name] = strings.TrimSpace(e.Request.FormValue(f.Name))
	}
	return partial
}

// validateStepInput runs the field rules plus catalog checks for step.
func validateStepInput(app core.App, step wizard.Step, data map[string]any) map[string]string {
	errs := wizard.ValidateStep(step, data)
	for _, f := range step.Fields {
		if f.Name != wizard.KeyPackage {
			continue
		}
		if _, failed := errs[f.Name]; failed {
			continue
		}
		slug := cast.ToString(data[f.Name])
		if slug == "" {
			continue
		}
		if _, err := services.FindPackageBySlug(app, slug); err != nil {
			errs[f.Name] = "Choose one of the listed packages"
		}
	}
	return errs
}

// HandleWizardView handles GET /wizard
// Renders the visitor's current step, resuming any saved progress.
func HandleWizardView(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardView: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return renderWizard(e, app, ws, engine, nil)
	}
}

// HandleWizardStepSave handles POST /wizard/step
// Merges the posted fields into the wizard data and advances when the step
// is valid. Invalid input keeps the visitor on the step with field errors.
func HandleWizardStepSave(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardStepSave: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		idx, step := engine.CurrentStep()
		engine.UpdateData(readStepForm(e, step))

		errs := validateStepInput(app, step, engine.State().Data)
		engine.SetStepValidation(idx, len(errs) == 0)
		if len(errs) > 0 {
			SetToast(e, "warning", "Please fix the errors below")
			return renderWizard(e, app, ws, engine, errs)
		}

		engine.NextStep()
		return renderWizard(e, app, ws, engine, nil)
	}
}

// HandleWizardPrev handles POST /wizard/prev
func HandleWizardPrev(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardPrev: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		engine.PrevStep()
		return renderWizard(e, app, ws, engine, nil)
	}
}

// HandleWizardGoTo handles POST /wizard/goto/{step}
// Jumping back is always allowed; jumping forward requires every earlier
// step to be valid.
func HandleWizardGoTo(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		n, err := strconv.Atoi(e.Request.PathValue("step"))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid step")
		}

		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardGoTo: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		state := engine.State()
		if n < 0 || n >= state.TotalSteps {
			return ErrorToast(e, http.StatusBadRequest, "Invalid step")
		}
		if n > state.CurrentStep {
			if first := firstInvalidStep(state, n); first >= 0 {
				return ErrorToast(e, http.StatusConflict, "Please complete the earlier steps first")
			}
		}

		if err := engine.GoToStep(n); err != nil {
			if errors.Is(err, wizard.ErrInvalidStep) {
				return ErrorToast(e, http.StatusBadRequest, "Invalid step")
			}
			log.Printf("wizard: HandleWizardGoTo: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return renderWizard(e, app, ws, engine, nil)
	}
}

// HandleWizardReset handles POST /wizard/reset
// Discards all progress and returns to the first step.
func HandleWizardReset(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardReset: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		engine.Reset(nil)
		SetToast(e, "info", "Started over")
		return renderWizard(e, app, ws, engine, nil)
	}
}

// HandleWizardToggleAddon handles POST /wizard/addons/{addonId}/toggle
// Selects the add-on if it is not selected yet, otherwise removes it, and
// returns the updated estimate.
func HandleWizardToggleAddon(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		addonID := e.Request.PathValue("addonId")

		catalog, err := services.ListActiveAddons(app)
		if err != nil {
			log.Printf("wizard: HandleWizardToggleAddon: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		var addon *services.Addon
		for i := range catalog {
			if catalog[i].ID == addonID {
				addon = &catalog[i]
				break
			}
		}
		if addon == nil {
			return ErrorToast(e, http.StatusNotFound, "Add-on not found")
		}

		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardToggleAddon: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		data := engine.State().Data
		selection := services.SelectionFromIDs(catalog, cast.ToStringSlice(data[wizard.KeyAddons]))
		selection = services.ToggleAddon(selection, *addon)
		engine.UpdateData(map[string]any{wizard.KeyAddons: selection.IDs()})

		pricing, err := priceWizard(app, ws.Settings, engine.State().Data, catalog)
		if err != nil {
			log.Printf("wizard: HandleWizardToggleAddon: priceWizard: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if isHTMX(e) && pricing.Price != nil {
			return templates.PriceSummary(*pricing.Price, pricing.Savings).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"selected": selection.IDs(),
			"price":    pricing.Price,
			"savings":  pricing.Savings,
		})
	}
}

// HandleWizardPrice handles GET /wizard/price
// Returns the running estimate for the visitor's selections as JSON.
func HandleWizardPrice(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardPrice: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		catalog, err := services.ListActiveAddons(app)
		if err != nil {
			log.Printf("wizard: HandleWizardPrice: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		pricing, err := priceWizard(app, ws.Settings, engine.State().Data, catalog)
		if err != nil {
			log.Printf("wizard: HandleWizardPrice: priceWizard: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"package":  pricing.Package,
			"selected": pricing.Selection.IDs(),
			"price":    pricing.Price,
			"savings":  pricing.Savings,
		})
	}
}

// HandleWizardState handles GET /wizard/state
// Returns the raw wizard state, mainly for client-side resumption.
func HandleWizardState(app *pocketbase.PocketBase, ws *WizardSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		engine, _, err := ws.Open(e)
		if err != nil {
			log.Printf("wizard: HandleWizardState: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"state": engine.State(),
			"steps": engine.Steps(),
		})
	}
}
