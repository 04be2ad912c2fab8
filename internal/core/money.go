// Package core holds the budgeting domain types.
//
// This file contains parsing of user-entered amounts into minor units and the
// presentation-side conversion back to major units. Calculations never leave
// minor units; decimals only appear at the edges.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency describes how a currency is displayed.
type Currency struct {
	Symbol   string
	Exponent int32 // number of minor-unit digits, 2 for cents
}

// CurrencyTable maps ISO 4217 codes to display information. Formatting
// functions receive the table explicitly; nothing reads a package-level copy.
type CurrencyTable map[string]Currency

// DefaultCurrencies returns a fresh table with the currencies the app knows
// out of the box. Callers may extend their own copy.
func DefaultCurrencies() CurrencyTable {
	return CurrencyTable{
		"EUR": {Symbol: "€", Exponent: 2},
		"USD": {Symbol: "$", Exponent: 2},
		"GBP": {Symbol: "£", Exponent: 2},
		"CHF": {Symbol: "CHF ", Exponent: 2},
		"JPY": {Symbol: "¥", Exponent: 0},
	}
}

// Lookup returns the entry for code, falling back to the code itself as
// symbol with two minor digits.
func (t CurrencyTable) Lookup(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := t[code]; ok {
		return c
	}
	return Currency{Symbol: code + " ", Exponent: 2}
}

// ParseAmount converts a user-entered decimal string to minor units.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Extra digits are
// rounded half-up. Negative and zero values are rejected.
//
// Examples:
//
//	ParseAmount("12.34", 2)  -> 1234
//	ParseAmount("12,345", 2) -> 1235
//	ParseAmount("500", 0)    -> 500
func ParseAmount(s string, exponent int32) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	minor := d.Shift(exponent).Round(0)
	if !minor.IsPositive() || minor.GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: minor.IntPart()}, nil
}

// Major returns the amount in major units, e.g. 1234 cents -> 12.34.
func (m Money) Major(exponent int32) decimal.Decimal {
	return decimal.New(m.Cents, -exponent)
}

// FormatMoney renders m for display using the given currency table.
func FormatMoney(m Money, code string, table CurrencyTable) string {
	c := table.Lookup(code)
	major := m.Major(c.Exponent)
	if major.IsNegative() {
		return fmt.Sprintf("-%s%s", c.Symbol, major.Neg().StringFixed(c.Exponent))
	}
	return c.Symbol + major.StringFixed(c.Exponent)
}
