package core

import "testing"

func entry(label, desc string, cents int64, date Date) Transaction {
	return Transaction{Label: label, Description: desc, Amount: Money{Cents: cents}, Date: date, UserID: "u1"}
}

func TestSummarize(t *testing.T) {
	// A small May 2024 ledger: +500 income, -120 expense.
	entries := []Transaction{
		entry("Salary", "", 50000, NewDate(2024, 5, 1)),
		entry("Groceries", "Food", -12000, NewDate(2024, 5, 15)),
	}
	s := Summarize(entries)
	if s.Income.Cents != 50000 {
		t.Errorf("income = %d, want 50000", s.Income.Cents)
	}
	if s.Expense.Cents != 12000 {
		t.Errorf("expense = %d, want 12000", s.Expense.Cents)
	}
	if s.Net.Cents != 38000 {
		t.Errorf("net = %d, want 38000", s.Net.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Income.Cents != 0 || s.Expense.Cents != 0 || s.Net.Cents != 0 {
		t.Errorf("empty ledger should be all zero, got %+v", s)
	}
}

func TestSummarizeSignPartition(t *testing.T) {
	// Every non-negative amount lands in income, every negative in expense.
	entries := []Transaction{
		entry("a", "", 100, NewDate(2024, 1, 1)),
		entry("b", "", -100, NewDate(2024, 1, 2)),
		entry("c", "", 1, NewDate(2024, 1, 3)),
		entry("d", "", -250, NewDate(2024, 1, 4)),
	}
	s := Summarize(entries)
	if s.Income.Cents != 101 {
		t.Errorf("income = %d, want 101", s.Income.Cents)
	}
	if s.Expense.Cents != 350 {
		t.Errorf("expense = %d, want 350", s.Expense.Cents)
	}
}

func TestBreakdown(t *testing.T) {
	entries := []Transaction{
		entry("Groceries", "Food", -6000, NewDate(2024, 5, 2)),
		entry("Restaurant", "Food", -2000, NewDate(2024, 5, 3)),
		entry("Bus", "Transport", -2000, NewDate(2024, 5, 4)),
		entry("Salary", "", 50000, NewDate(2024, 5, 1)), // ignored for expense chart
	}
	slices := Breakdown(entries, CategoryExpense)
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].Name != "Food" || slices[0].Amount.Cents != 8000 {
		t.Errorf("top slice = %+v, want Food/8000", slices[0])
	}
	if slices[0].Percent != 80 {
		t.Errorf("Food percent = %v, want 80", slices[0].Percent)
	}
	if slices[1].Name != "Transport" || slices[1].Percent != 20 {
		t.Errorf("second slice = %+v, want Transport/20%%", slices[1])
	}

	income := Breakdown(entries, CategoryIncome)
	if len(income) != 1 || income[0].Name != "Salary" {
		t.Fatalf("income breakdown = %+v, want single Salary slice", income)
	}
	if income[0].Percent != 100 {
		t.Errorf("Salary percent = %v, want 100", income[0].Percent)
	}
}

func TestBreakdownLabelFallback(t *testing.T) {
	entries := []Transaction{
		entry("Coffee", "", -300, NewDate(2024, 5, 2)),
		entry("Coffee", "", -200, NewDate(2024, 5, 3)),
	}
	slices := Breakdown(entries, CategoryExpense)
	if len(slices) != 1 || slices[0].Name != "Coffee" || slices[0].Amount.Cents != 500 {
		t.Fatalf("expected grouped Coffee slice, got %+v", slices)
	}
}
