// Package core holds the pure domain logic: records, currency
// normalization, period filtering, summary aggregation, goal tracking
// and vault arithmetic. Nothing in this package performs I/O.
package core

import "strings"

// usdMarkers are the legacy description markers for USD-denominated
// entries. Rows created before the explicit Currency column carry one
// of these inside the free-text description.
var usdMarkers = []string{"(usd)", "u$d"}

// DetectCurrency scans a description for a USD marker,
// case-insensitively. A missing or empty description is ARS.
func DetectCurrency(description string) Currency {
	lower := strings.ToLower(description)
	for _, m := range usdMarkers {
		if strings.Contains(lower, m) {
			return CurrencyUSD
		}
	}
	return CurrencyARS
}

// NormalizeAmount converts an amount into ARS. An explicit USD currency
// wins; when currency is unset the description markers decide. The rate
// is ARS per USD and is taken as-is: a zero or negative rate is an
// upstream problem, not guarded here. No rounding is applied.
func NormalizeAmount(amount float64, description string, currency Currency, rate float64) float64 {
	cur := currency
	if cur == "" {
		cur = DetectCurrency(description)
	}
	if cur == CurrencyUSD {
		return amount * rate
	}
	return amount
}

// AmountARS returns the transaction amount in ARS.
func (t Transaction) AmountARS(rate float64) float64 {
	return NormalizeAmount(t.Amount, t.Description, t.Currency, rate)
}

// FeeARS returns the client's monthly fee in ARS. Clients carry an
// explicit currency field, so no marker detection happens here.
func (c Client) FeeARS(rate float64) float64 {
	if c.Currency == CurrencyUSD {
		return c.MonthlyFee * rate
	}
	return c.MonthlyFee
}
