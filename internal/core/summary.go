package core

import "sort"

// Summary holds the dashboard totals for a set of ledger entries.
type Summary struct {
	Income  Money
	Expense Money // magnitude of all negative amounts
	Net     Money // Income - Expense
}

// CategorySlice is one wedge of a category pie chart.
type CategorySlice struct {
	Name    string
	Amount  Money
	Percent float64
}

// Summarize computes the income/expense/net totals over entries already
// scoped to a user and time window. Entries with amount >= 0 count as
// income, the rest as expense at their absolute value.
func Summarize(entries []Transaction) Summary {
	var s Summary
	for _, t := range entries {
		if t.Amount.Cents > 0 {
			s.Income.Cents += t.Amount.Cents
		} else {
			s.Expense.Cents += -t.Amount.Cents
		}
	}
	s.Net.Cents = s.Income.Cents - s.Expense.Cents
	return s
}

// Breakdown groups entries of one sign by category (description, falling
// back to label), sums each group and computes its share of the total,
// sorted descending by sum. Pass CategoryIncome for the income chart,
// CategoryExpense for the expense chart.
func Breakdown(entries []Transaction, kind CategoryType) []CategorySlice {
	sums := make(map[string]int64)
	var total int64
	for _, t := range entries {
		switch kind {
		case CategoryIncome:
			if t.Amount.Cents <= 0 {
				continue
			}
			sums[t.BreakdownKey()] += t.Amount.Cents
			total += t.Amount.Cents
		case CategoryExpense:
			if t.Amount.Cents >= 0 {
				continue
			}
			sums[t.BreakdownKey()] += -t.Amount.Cents
			total += -t.Amount.Cents
		}
	}
	slices := make([]CategorySlice, 0, len(sums))
	for name, cents := range sums {
		slice := CategorySlice{Name: name, Amount: Money{Cents: cents}}
		if total > 0 {
			slice.Percent = float64(cents) / float64(total) * 100
		}
		slices = append(slices, slice)
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Amount.Cents != slices[j].Amount.Cents {
			return slices[i].Amount.Cents > slices[j].Amount.Cents
		}
		return slices[i].Name < slices[j].Name
	})
	return slices
}
