package wizard

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/cast"
)

// FieldKind controls how a field is rendered and validated.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindEmail  FieldKind = "email"
	KindURL    FieldKind = "url"
	KindSelect FieldKind = "select"
	KindMulti  FieldKind = "multi"
	KindLong   FieldKind = "textarea"
)

type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

type Step struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Well-known data keys read by the pricing side of the application.
const (
	KeyPackage = "package"
	KeyAddons  = "addons"
)

// SiteBuilderSteps is the default configuration of the site-builder wizard.
func SiteBuilderSteps() []Step {
	return []Step{
		{
			ID:    "business",
			Title: "Your business",
			Fields: []Field{
				{Name: "business_name", Label: "Business name", Kind: KindText, Required: true},
				{Name: "industry", Label: "Industry", Kind: KindSelect, Required: true, Options: []string{
					"retail", "hospitality", "professional-services", "health", "trades", "nonprofit", "other",
				}},
				{Name: "current_website", Label: "Current website", Kind: KindURL},
			},
		},
		{
			ID:    "package",
			Title: "Choose a package",
			Fields: []Field{
				{Name: KeyPackage, Label: "Package", Kind: KindSelect, Required: true},
			},
		},
		{
			ID:    "addons",
			Title: "Add-ons",
			Fields: []Field{
				{Name: KeyAddons, Label: "Add-ons", Kind: KindMulti},
			},
		},
		{
			ID:    "design",
			Title: "Design preferences",
			Fields: []Field{
				{Name: "style", Label: "Style", Kind: KindSelect, Required: true, Options: []string{
					"minimal", "bold", "classic", "playful",
				}},
				{Name: "color_preferences", Label: "Colour preferences", Kind: KindText},
				{Name: "reference_sites", Label: "Sites you like", Kind: KindLong},
			},
		},
		{
			ID:    "contact",
			Title: "Contact details",
			Fields: []Field{
				{Name: "contact_name", Label: "Your name", Kind: KindText, Required: true},
				{Name: "contact_email", Label: "Email", Kind: KindEmail, Required: true},
				{Name: "phone", Label: "Phone", Kind: KindText},
				{Name: "notes", Label: "Anything else?", Kind: KindLong},
			},
		},
	}
}

// ValidateStep checks data against the fields of step and returns a message
// per failing field. An empty map means the step is valid.
func ValidateStep(step Step, data map[string]any) map[string]string {
	errs := make(map[string]string)
	for _, f := range step.Fields {
		if err := validateField(f, data[f.Name]); err != nil {
			errs[f.Name] = err.Error()
		}
	}
	return errs
}

func validateField(f Field, value any) error {
	if f.Kind == KindMulti {
		values := cast.ToStringSlice(value)
		if f.Required && len(values) == 0 {
			return validation.NewError("validation_required", f.Label+" needs at least one selection")
		}
		return nil
	}

	s := strings.TrimSpace(cast.ToString(value))
	var rules []validation.Rule
	if f.Required {
		rules = append(rules, validation.Required.Error(f.Label+" is required"))
	}
	switch f.Kind {
	case KindEmail:
		rules = append(rules, is.EmailFormat.Error("Enter a valid email address"))
	case KindURL:
		rules = append(rules, is.URL.Error("Enter a valid URL"))
	case KindSelect:
		if len(f.Options) > 0 {
			opts := make([]any, len(f.Options))
			for i, o := range f.Options {
				opts[i] = o
			}
			rules = append(rules, validation.In(opts...).Error("Choose one of the listed options"))
		}
	}
	return validation.Validate(s, rules...)
}
