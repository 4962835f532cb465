package services

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Every supported currency uses two decimal
// places, so one minor unit is always 1/100 of a major unit.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
)

// DefaultCurrency is used when an empty proposal has no line items to take a
// currency from.
const DefaultCurrency = USD

const minorUnitExponent = 2

// MaxStoredAmount is the largest minor-unit amount a number column holds
// exactly (2^53 - 1).
const MaxStoredAmount int64 = 1<<53 - 1

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	INR: "₹",
	AUD: "A$",
	CAD: "C$",
}

var currencyWords = map[Currency]string{
	USD: "Dollars",
	EUR: "Euros",
	GBP: "Pounds",
	INR: "Rupees",
	AUD: "Australian Dollars",
	CAD: "Canadian Dollars",
}

// ParseCurrency normalises a currency code and checks that it is supported.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := currencySymbols[c]; !ok {
		return "", invalid("currency", s, ErrUnknownCurrency)
	}
	return c, nil
}

// Symbol returns the display prefix for the currency.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c) + " "
}

// Money is an immutable amount held as integer minor units (cents).
// Arithmetic never goes through binary floating point.
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// NewMoney builds a Money from minor units.
func NewMoney(amount int64, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

// ParseMoney converts a major-unit decimal string ("1234.50") into Money.
// Values with more than two decimal places are rejected rather than rounded.
func ParseMoney(s string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, invalid("amount", s, err)
	}
	minor := d.Shift(minorUnitExponent)
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, invalid("amount", s, ErrSubMinorPrecision)
	}
	if minor.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Money{}, invalid("amount", s, ErrAmountOverflow)
	}
	return Money{Amount: minor.IntPart(), Currency: currency}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -minorUnitExponent)
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return invalid("currency", string(o.Currency), ErrCurrencyMismatch)
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	sum := m.Amount + o.Amount
	if (o.Amount > 0 && sum < m.Amount) || (o.Amount < 0 && sum > m.Amount) {
		return Money{}, invalid("amount", o.Amount, ErrAmountOverflow)
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) (Money, error) {
	if o.Amount == math.MinInt64 {
		return Money{}, invalid("amount", o.Amount, ErrAmountOverflow)
	}
	return m.Add(Money{Amount: -o.Amount, Currency: o.Currency})
}

// MulInt multiplies by an integer factor, failing on int64 overflow.
func (m Money) MulInt(n int64) (Money, error) {
	if m.Amount == 0 || n == 0 {
		return Money{Currency: m.Currency}, nil
	}
	product := m.Amount * n
	if product/n != m.Amount || (m.Amount == -1 && n == math.MinInt64) || (n == -1 && m.Amount == math.MinInt64) {
		return Money{}, invalid("quantity", n, ErrAmountOverflow)
	}
	return Money{Amount: product, Currency: m.Currency}, nil
}

// MulDecimal multiplies by an arbitrary-precision factor and rounds the
// result half away from zero to a whole minor unit.
func (m Money) MulDecimal(factor decimal.Decimal) Money {
	return Money{
		Amount:   roundHalfUp(decimal.NewFromInt(m.Amount).Mul(factor)),
		Currency: m.Currency,
	}
}

// String renders the amount with its currency symbol, e.g. "$1,234.50".
func (m Money) String() string {
	return FormatMoney(m)
}

// roundHalfUp is the single rounding rule used for every money result:
// half away from zero, to zero decimal places.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
