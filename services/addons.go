package services

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Addon is an optional priced feature a customer may add to a package.
type Addon struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
}

// AddonSelection is an insertion-ordered set of add-ons keyed by ID.
// It is a value type: every operation returns a new selection.
type AddonSelection struct {
	addons []Addon
}

// NewAddonSelection builds a selection, keeping the first occurrence of each ID.
func NewAddonSelection(addons ...Addon) AddonSelection {
	var s AddonSelection
	for _, a := range addons {
		if !s.Contains(a.ID) {
			s.addons = append(s.addons, a)
		}
	}
	return s
}

func (s AddonSelection) Len() int { return len(s.addons) }

func (s AddonSelection) Contains(id string) bool {
	for _, a := range s.addons {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Addons returns a copy of the selected add-ons in selection order.
func (s AddonSelection) Addons() []Addon {
	out := make([]Addon, len(s.addons))
	copy(out, s.addons)
	return out
}

// IDs returns the selected add-on IDs in selection order.
func (s AddonSelection) IDs() []string {
	ids := make([]string, 0, len(s.addons))
	for _, a := range s.addons {
		ids = append(ids, a.ID)
	}
	return ids
}

// Equal compares two selections as sets.
func (s AddonSelection) Equal(o AddonSelection) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, a := range s.addons {
		if !o.Contains(a.ID) {
			return false
		}
	}
	return true
}

func (s AddonSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Addons())
}

// ToggleAddon removes addon from the selection if present, otherwise
// appends it. Toggling the same add-on twice yields the original set.
func ToggleAddon(selection AddonSelection, addon Addon) AddonSelection {
	out := AddonSelection{addons: make([]Addon, 0, selection.Len()+1)}
	removed := false
	for _, a := range selection.addons {
		if a.ID == addon.ID {
			removed = true
			continue
		}
		out.addons = append(out.addons, a)
	}
	if !removed {
		out.addons = append(out.addons, addon)
	}
	return out
}

// PriceCalculation is the estimate shown while a customer builds their site.
type PriceCalculation struct {
	BasePrice      Money   `json:"base_price"`
	AddonsTotal    Money   `json:"addons_total"`
	EstimatedTotal Money   `json:"estimated_total"`
	Addons         []Addon `json:"addons"`
}

// CalcTotalPrice returns basePrice plus the price of every selected add-on.
func CalcTotalPrice(basePrice Money, selection AddonSelection) (PriceCalculation, error) {
	if basePrice.IsNegative() {
		return PriceCalculation{}, invalid("base_price", basePrice.Amount, ErrNegativeAmount)
	}
	addonsTotal := Zero(basePrice.Currency)
	for _, a := range selection.addons {
		if a.Price.IsNegative() {
			return PriceCalculation{}, invalid("addon_price", a.ID, ErrNegativeAmount)
		}
		var err error
		if addonsTotal, err = addonsTotal.Add(a.Price); err != nil {
			return PriceCalculation{}, err
		}
	}
	total, err := basePrice.Add(addonsTotal)
	if err != nil {
		return PriceCalculation{}, err
	}
	return PriceCalculation{
		BasePrice:      basePrice,
		AddonsTotal:    addonsTotal,
		EstimatedTotal: total,
		Addons:         selection.Addons(),
	}, nil
}

// Savings compares an estimate against what the market would charge.
type Savings struct {
	EstimatedTotal    Money `json:"estimated_total"`
	MarketValue       Money `json:"market_value"`
	Savings           Money `json:"savings"`
	SavingsPercentage int64 `json:"savings_percentage"`
}

// CalcSavings prices the estimate at marketRateMultiplier × estimatedTotal and
// reports the difference. A zero market value yields a zero percentage.
func CalcSavings(estimatedTotal Money, marketRateMultiplier decimal.Decimal) (Savings, error) {
	if marketRateMultiplier.IsNegative() {
		return Savings{}, invalid("market_rate_multiplier", marketRateMultiplier.String(), ErrInvalidMultiplier)
	}
	marketValue := estimatedTotal.MulDecimal(marketRateMultiplier)
	savings, err := marketValue.Sub(estimatedTotal)
	if err != nil {
		return Savings{}, err
	}
	var pct int64
	if !marketValue.IsZero() {
		pct = roundHalfUp(decimal.NewFromInt(savings.Amount).Mul(hundred).Div(decimal.NewFromInt(marketValue.Amount)))
	}
	return Savings{
		EstimatedTotal:    estimatedTotal,
		MarketValue:       marketValue,
		Savings:           savings,
		SavingsPercentage: pct,
	}, nil
}
