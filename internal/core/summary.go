package core

// Summary holds the aggregate figures for a reporting period, all in
// ARS. Amounts are accumulated as floats with no intermediate
// rounding; rounding happens only at presentation.
type Summary struct {
	TotalIncome     float64
	TotalExpense    float64
	ProjectedIncome float64
	// Balance is cash actually received minus cash actually spent.
	Balance float64
	// ProjectedBalance is the hypothetical full client collection minus
	// actual expenses. The two balances are distinct on purpose: the
	// product separates money in hand from money expected.
	ProjectedBalance float64
}

// Summarize reduces period-filtered transactions and the full client
// list into the aggregate figures. Transaction amounts are normalized
// per entry; client fees are converted via the client's own currency
// field.
func Summarize(txs []Transaction, clients []Client, rate float64) Summary {
	var s Summary
	for _, t := range txs {
		v := t.AmountARS(rate)
		if t.Type == Income {
			s.TotalIncome += v
		} else {
			s.TotalExpense += v
		}
	}
	s.ProjectedIncome = ProjectedIncome(clients, rate)
	s.Balance = s.TotalIncome - s.TotalExpense
	s.ProjectedBalance = s.ProjectedIncome - s.TotalExpense
	return s
}

// ProjectedIncome is the hypothetical monthly revenue if every active
// client pays the full fee.
func ProjectedIncome(clients []Client, rate float64) float64 {
	var total float64
	for _, c := range clients {
		if !c.Active {
			continue
		}
		total += c.FeeARS(rate)
	}
	return total
}

// TotalExpense sums the normalized expense amounts of the given set.
func TotalExpense(txs []Transaction, rate float64) float64 {
	var total float64
	for _, t := range txs {
		if t.Type == Expense {
			total += t.AmountARS(rate)
		}
	}
	return total
}
