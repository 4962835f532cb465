// Package templates renders the HTML fragments served to HTMX clients.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"sitewizard/services"
	"sitewizard/wizard"
)

// StepNav is one entry of the progress bar.
type StepNav struct {
	Index   int
	Title   string
	Current bool
	Valid   bool
}

// AddonOption is a catalog add-on with its selection state.
type AddonOption struct {
	Addon    services.Addon
	Selected bool
}

// WizardPageData is everything the wizard step view needs.
type WizardPageData struct {
	Nav         []StepNav
	StepIndex   int
	Step        wizard.Step
	IsFirst     bool
	IsLast      bool
	Values      map[string]string
	Errors      map[string]string
	Packages    []services.Package
	Addons      []AddonOption
	Price       *services.PriceCalculation
	Savings     *services.Savings
	SubmitError string
}

// WizardPage renders the full wizard page: progress, current step form and
// the running estimate.
func WizardPage(data WizardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>Build your site</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script></head><body>`); err != nil {
			return err
		}
		if err := WizardStepSection(data).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// WizardStepSection renders the swappable #wizard section.
func WizardStepSection(data WizardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<section id="wizard" class="wizard">`)
		writeNav(&b, data.Nav)

		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(data.Step.Title))
		if data.SubmitError != "" {
			fmt.Fprintf(&b, `<div class="alert alert-error" role="alert">%s</div>`, templ.EscapeString(data.SubmitError))
		}

		b.WriteString(`<form hx-post="/wizard/step" hx-target="#wizard" hx-swap="outerHTML">`)
		for _, f := range data.Step.Fields {
			writeField(&b, f, data)
		}
		b.WriteString(`<div class="wizard-actions">`)
		if !data.IsFirst {
			b.WriteString(`<button type="button" hx-post="/wizard/prev" hx-target="#wizard" hx-swap="outerHTML">Back</button>`)
		}
		if data.IsLast {
			b.WriteString(`<button type="submit" hx-post="/wizard/submit">Send request</button>`)
		} else {
			b.WriteString(`<button type="submit">Continue</button>`)
		}
		b.WriteString(`</div></form>`)

		if data.Price != nil {
			if err := PriceSummary(*data.Price, data.Savings).Render(ctx, &b); err != nil {
				return err
			}
		}
		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PriceSummary renders the estimate sidebar.
func PriceSummary(price services.PriceCalculation, savings *services.Savings) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<aside id="price-summary" class="price-summary">`)
		fmt.Fprintf(&b, `<div>Base price <span>%s</span></div>`, templ.EscapeString(price.BasePrice.String()))
		for _, a := range price.Addons {
			fmt.Fprintf(&b, `<div class="addon-line">%s <span>%s</span></div>`,
				templ.EscapeString(a.Name), templ.EscapeString(a.Price.String()))
		}
		fmt.Fprintf(&b, `<div class="total">Estimated total <strong>%s</strong></div>`,
			templ.EscapeString(price.EstimatedTotal.String()))
		if savings != nil && savings.SavingsPercentage > 0 {
			fmt.Fprintf(&b, `<div class="savings">You save %s (%d%%) against a typical agency quote of %s</div>`,
				templ.EscapeString(savings.Savings.String()), savings.SavingsPercentage,
				templ.EscapeString(savings.MarketValue.String()))
		}
		b.WriteString(`</aside>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeNav(b *strings.Builder, nav []StepNav) {
	b.WriteString(`<ol class="wizard-progress">`)
	for _, s := range nav {
		class := "step"
		if s.Current {
			class += " current"
		}
		if s.Valid {
			class += " done"
		}
		fmt.Fprintf(b, `<li class="%s"><button type="button" hx-post="/wizard/goto/%d" hx-target="#wizard" hx-swap="outerHTML">%s</button></li>`,
			class, s.Index, templ.EscapeString(s.Title))
	}
	b.WriteString(`</ol>`)
}

func writeField(b *strings.Builder, f wizard.Field, data WizardPageData) {
	name := templ.EscapeString(f.Name)
	value := templ.EscapeString(data.Values[f.Name])
	required := ""
	if f.Required {
		required = " required"
	}

	fmt.Fprintf(b, `<div class="field"><label for="%s">%s</label>`, name, templ.EscapeString(f.Label))

	switch {
	case f.Name == wizard.KeyPackage:
		fmt.Fprintf(b, `<select id="%s" name="%s"%s><option value="">Choose…</option>`, name, name, required)
		for _, p := range data.Packages {
			sel := ""
			if p.Slug == data.Values[f.Name] {
				sel = " selected"
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s – %s</option>`,
				templ.EscapeString(p.Slug), sel, templ.EscapeString(p.Name), templ.EscapeString(p.BasePrice.String()))
		}
		b.WriteString(`</select>`)
	case f.Kind == wizard.KindMulti:
		b.WriteString(`<ul class="addon-list">`)
		for _, opt := range data.Addons {
			checked := ""
			if opt.Selected {
				checked = " checked"
			}
			id := templ.EscapeString(opt.Addon.ID)
			fmt.Fprintf(b, `<li><input type="checkbox" id="addon-%s" name="%s" value="%s"%s hx-post="/wizard/addons/%s/toggle" hx-target="#price-summary" hx-swap="outerHTML">`+
				`<label for="addon-%s">%s <span>%s</span></label></li>`,
				id, name, id, checked, id, id, templ.EscapeString(opt.Addon.Name), templ.EscapeString(opt.Addon.Price.String()))
		}
		b.WriteString(`</ul>`)
	case f.Kind == wizard.KindSelect:
		fmt.Fprintf(b, `<select id="%s" name="%s"%s><option value="">Choose…</option>`, name, name, required)
		for _, o := range f.Options {
			sel := ""
			if o == data.Values[f.Name] {
				sel = " selected"
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, templ.EscapeString(o), sel, templ.EscapeString(o))
		}
		b.WriteString(`</select>`)
	case f.Kind == wizard.KindLong:
		fmt.Fprintf(b, `<textarea id="%s" name="%s"%s>%s</textarea>`, name, name, required, value)
	default:
		inputType := "text"
		switch f.Kind {
		case wizard.KindEmail:
			inputType = "email"
		case wizard.KindURL:
			inputType = "url"
		}
		fmt.Fprintf(b, `<input type="%s" id="%s" name="%s" value="%s"%s>`, inputType, name, name, value, required)
	}

	if msg, ok := data.Errors[f.Name]; ok {
		fmt.Fprintf(b, `<p class="field-error">%s</p>`, templ.EscapeString(msg))
	}
	b.WriteString(`</div>`)
}
