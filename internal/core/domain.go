package core

import (
	"errors"
	"strings"
)

const (
	CategoryIncome  CategoryType = "Income"
	CategoryExpense CategoryType = "Expense"
)

type (
	CategoryType string

	// User is an account holder. The ID is assigned by the auth layer at
	// registration and is the only identity key.
	User struct {
		ID           string
		Username     string
		Email        string
		PasswordHash string
	}

	// Transaction is a single ledger entry. Amount is signed: positive
	// amounts are income, negative amounts are expenses. ID zero means the
	// entry has not been persisted yet; the store assigns the real id on
	// insert.
	Transaction struct {
		ID           int64
		Label        string
		Amount       Money
		Description  string // optional; doubles as the breakdown category
		Date         Date
		UserID       string
		LinkedGoalID int64 // 0 when not tied to a savings goal
	}

	Category struct {
		ID     int64
		Name   string
		Type   CategoryType
		UserID string
	}

	// SavingsGoal tracks money set aside toward a target. CurrentAmount
	// never exceeds TargetAmount; that bound is enforced before any write.
	SavingsGoal struct {
		ID            int64
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		Icon          string
		UserID        string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrZeroAmount       = errors.New("amount cannot be zero")
	ErrEmptyLabel       = errors.New("empty label")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUser        = errors.New("empty user id")
	ErrInvalidType      = errors.New("invalid category type")
	ErrAmountOverTarget = errors.New("current amount cannot exceed target")
)

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Label)) == 0 {
		return ErrEmptyLabel
	}
	if len(t.Label) > 200 {
		return errors.New("label too long (max 200 characters)")
	}
	if t.Amount.Cents == 0 {
		return ErrZeroAmount
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	return nil
}

// IsIncome reports whether the entry adds money to the ledger.
func (t Transaction) IsIncome() bool {
	return t.Amount.Cents > 0
}

// BreakdownKey is the grouping key for category pie charts: the description
// when present, else the label.
func (t Transaction) BreakdownKey() string {
	if strings.TrimSpace(t.Description) != "" {
		return t.Description
	}
	return t.Label
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	switch c.Type {
	case CategoryIncome, CategoryExpense:
	default:
		return ErrInvalidType
	}
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return ErrAmountOverTarget
	}
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUser
	}
	return nil
}

// Progress returns completion as a percentage clamped to [0, 100].
func (g SavingsGoal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
