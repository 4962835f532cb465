package services

import (
	"fmt"
	"strings"
)

// FormatMoney renders m with its currency symbol and two decimal places.
// INR uses the Indian grouping (₹1,23,45,678.90); every other currency
// groups in thousands ($12,345,678.90).
func FormatMoney(m Money) string {
	amount := m.Amount
	negative := amount < 0
	if negative {
		amount = -amount
	}

	intPart := fmt.Sprintf("%d", amount/100)
	decPart := fmt.Sprintf("%02d", amount%100)

	var formatted string
	if m.Currency == INR {
		formatted = applyIndianGrouping(intPart)
	} else {
		formatted = applyThousandsGrouping(intPart)
	}

	result := m.Currency.Symbol() + formatted + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// applyThousandsGrouping inserts a comma every three digits from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]

	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}

// AmountToWords spells out an amount for the "amount in words" line of a
// proposal, e.g. 123450 USD → "One Thousand Two Hundred Thirty Four Dollars
// and 50/100 Only".
func AmountToWords(m Money) string {
	if m.Amount < 0 {
		return "Negative " + AmountToWords(Money{Amount: -m.Amount, Currency: m.Currency})
	}

	unit, ok := currencyWords[m.Currency]
	if !ok {
		unit = string(m.Currency)
	}

	major := m.Amount / 100
	minor := m.Amount % 100

	words := "Zero"
	if major > 0 {
		words = convertToWords(major)
	}
	if minor == 0 {
		return fmt.Sprintf("%s %s Only", words, unit)
	}
	return fmt.Sprintf("%s %s and %02d/100 Only", words, unit, minor)
}

var scales = []struct {
	value int64
	name  string
}{
	{1_000_000_000_000_000, "Quadrillion"},
	{1_000_000_000_000, "Trillion"},
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
}

func convertToWords(n int64) string {
	var parts []string
	for _, sc := range scales {
		if n >= sc.value {
			parts = append(parts, convertUnder1000(n/sc.value)+" "+sc.name)
			n %= sc.value
		}
	}
	if n > 0 {
		parts = append(parts, convertUnder1000(n))
	}
	return strings.Join(parts, " ")
}

func convertUnder1000(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, convertToWords(n/100)+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, convertUnder100(n))
	}
	return strings.Join(parts, " ")
}

func convertUnder100(n int64) string {
	if n < 20 {
		return ones[n]
	}
	result := tens[n/10]
	if n%10 != 0 {
		result += " " + ones[n%10]
	}
	return result
}

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}
