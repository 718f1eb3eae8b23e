// Package format renders summary values for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"transfer-status-backend/internal/models"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"NGN": "₦",
	"CAD": "CA$",
	"AUD": "A$",
}

// Digits returns the number of minor-unit digits for an ISO currency code.
// Unknown codes use two.
func Digits(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Money formats value in currency, e.g. Money(1234.5, "USD") == "$1,234.50".
// Currencies without a symbol are prefixed with their code.
func Money(value float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	d := decimal.NewFromFloat(value).Round(int32(Digits(code)))

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	num := group(d.StringFixed(int32(Digits(code))))

	if sym, ok := symbols[code]; ok {
		return sign + sym + num
	}
	return sign + code + " " + num
}

// CryptoAmount formats a quantity with up to eight decimals, e.g. "0.015 BTC".
func CryptoAmount(qty float64, symbol string) string {
	s := decimal.NewFromFloat(qty).Round(8).String()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return s
	}
	return s + " " + symbol
}

// FeeLine describes the fees of a summary, or "" when it has none.
func FeeLine(f models.Fees) string {
	var parts []string
	if f.App != nil {
		parts = append(parts, Money(*f.App, f.Currency)+" fee")
	}
	if f.Network != nil {
		parts = append(parts, Money(*f.Network, f.Currency)+" network fee")
	}
	return strings.Join(parts, " + ")
}

// Total returns the amount plus fees when both share a currency.
func Total(s models.TransferSummary) (string, bool) {
	if s.Fees.App == nil && s.Fees.Network == nil {
		return Money(s.Amount.Value, s.Amount.Currency), true
	}
	if !strings.EqualFold(s.Fees.Currency, s.Amount.Currency) {
		return "", false
	}
	total := decimal.NewFromFloat(s.Amount.Value).Add(decimal.NewFromFloat(s.Fees.Total()))
	return Money(total.InexactFloat64(), s.Amount.Currency), true
}

// group inserts thousands separators into the integer part of a plain decimal.
func group(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}
