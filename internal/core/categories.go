package core

// Category is an entry of the fixed category list.
type Category struct {
	ID   string
	Name string
}

// FallbackCategoryName is the bucket for unrecognized category ids.
const FallbackCategoryName = "Otros"

// NoExpensesLabel is the placeholder entry returned when a period has
// no expense transactions at all.
const NoExpensesLabel = "Sin gastos"

// Categories is the fixed category list, in display order.
var Categories = []Category{
	{ID: "food", Name: "Comida"},
	{ID: "transport", Name: "Transporte"},
	{ID: "housing", Name: "Vivienda"},
	{ID: "leisure", Name: "Ocio"},
	{ID: "salary", Name: "Salario"},
	{ID: "health", Name: "Salud"},
	{ID: "education", Name: "Libros"},
	{ID: "others", Name: "Otros"},
}

// CategoryName resolves a category id to its display name, falling
// back to the "Otros" bucket for unknown ids.
func CategoryName(id string) string {
	for _, c := range Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return FallbackCategoryName
}

// CategoryAmount is an expense total for one display category.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// BreakdownByCategory groups normalized expense amounts by category
// display name over the (already period-filtered) set. Income entries
// are ignored. An empty result becomes a single placeholder row rather
// than an empty list.
func BreakdownByCategory(txs []Transaction, rate float64) []CategoryAmount {
	sums := make(map[string]float64)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		name := CategoryName(t.Category)
		sums[name] += t.AmountARS(rate)
	}

	if len(sums) == 0 {
		return []CategoryAmount{{Name: NoExpensesLabel, Amount: 0}}
	}

	// Stable display order: fixed category order, then anything else.
	out := make([]CategoryAmount, 0, len(sums))
	for _, c := range Categories {
		if v, ok := sums[c.Name]; ok {
			out = append(out, CategoryAmount{Name: c.Name, Amount: v})
			delete(sums, c.Name)
		}
	}
	for name, v := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: v})
	}
	return out
}
