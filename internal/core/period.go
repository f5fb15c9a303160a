package core

import "time"

// FilterPeriod returns the transactions whose date falls in the period
// of the reference time. Month mode requires both month and year to
// match; year mode ignores the month. The filter is pure and
// idempotent.
func FilterPeriod(txs []Transaction, mode PeriodMode, ref time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if InPeriod(t.Date, mode, ref) {
			out = append(out, t)
		}
	}
	return out
}

// InPeriod reports whether date belongs to the reference period.
func InPeriod(date time.Time, mode PeriodMode, ref time.Time) bool {
	if date.Year() != ref.Year() {
		return false
	}
	if mode == PeriodYear {
		return true
	}
	return date.Month() == ref.Month()
}
