package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

// Rollover marker keys in the rollover preference namespace. Both hold a
// YYYY-MM month key. last_month gates the whole routine, last_goal_month
// records the last closed month a remaining-savings goal exists for.
const (
	prefLastMonth     = "last_month"
	prefLastGoalMonth = "last_goal_month"
)

// RolloverOutcome says what a rollover run did for one user.
type RolloverOutcome string

const (
	RolloverInitialized RolloverOutcome = "initialized"
	RolloverNotDue      RolloverOutcome = "not_due"
	RolloverNoSavings   RolloverOutcome = "no_savings"
	RolloverGoalExists  RolloverOutcome = "goal_exists"
	RolloverCreated     RolloverOutcome = "created"
)

// RolloverProcessor turns each user's leftover savings from the previous
// month into a dedicated goal at the start of a new month. The created goal
// starts full (target equals current) and an offsetting ledger entry, dated
// the last day of the closed month, moves the money out of the balance.
type RolloverProcessor struct {
	storage *storage.SQLiteRepository

	// bound on concurrent users in ProcessAll
	concurrency int
}

func NewRolloverProcessor(storage *storage.SQLiteRepository) *RolloverProcessor {
	return &RolloverProcessor{storage: storage, concurrency: 4}
}

// Process runs the rollover for a single user. Markers advance only after
// the month has been fully handled, so a failed run is retried on the next
// cycle instead of the month being skipped.
func (p *RolloverProcessor) Process(ctx context.Context, userID string, now time.Time) (RolloverOutcome, error) {
	if p.storage == nil {
		return "", fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	monthKey := today.MonthKey()

	marker, err := p.storage.GetPref(ctx, userID, storage.NamespaceRollover, prefLastMonth)
	if errors.Is(err, storage.ErrNotFound) {
		// First sight of this user. Record the month and start watching
		// from here; there is no trustworthy previous month to close.
		if err := p.advanceMarkers(ctx, userID, monthKey, ""); err != nil {
			return "", err
		}
		return RolloverInitialized, nil
	}
	if err != nil {
		return "", fmt.Errorf("read rollover marker: %w", err)
	}

	if marker == monthKey {
		return RolloverNotDue, nil
	}

	prev := today.PrevMonth()
	entries, err := p.storage.ListTransactionsByMonth(ctx, userID, prev)
	if err != nil {
		return "", fmt.Errorf("list previous month: %w", err)
	}

	savings := core.Summarize(entries).Net
	if savings.Cents <= 0 {
		slog.InfoContext(ctx, "No savings to roll over",
			"user_id", userID, "month", prev.MonthKey(), "net_cents", savings.Cents)
		if err := p.advanceMarkers(ctx, userID, monthKey, ""); err != nil {
			return "", err
		}
		return RolloverNoSavings, nil
	}

	title := "Remaining " + prev.MonthLabel()
	if _, err := p.storage.GetGoalByTitle(ctx, userID, title); err == nil {
		if err := p.advanceMarkers(ctx, userID, monthKey, prev.MonthKey()); err != nil {
			return "", err
		}
		return RolloverGoalExists, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("check rollover goal: %w", err)
	}

	goal := core.SavingsGoal{
		Title:         title,
		TargetAmount:  savings,
		CurrentAmount: savings,
		Icon:          "savings",
		UserID:        userID,
	}
	deposit := core.Transaction{
		Label:       title,
		Amount:      savings.Neg(),
		Description: "Savings rolled over automatically",
		Date:        prev.LastOfMonth(),
		UserID:      userID,
	}

	goalID, entryID, err := p.storage.InsertGoalWithDeposit(ctx, goal, deposit)
	if errors.Is(err, storage.ErrDuplicate) {
		// Another run got there first. The uniqueness constraint is the
		// arbiter, so this run just catches up its markers.
		if err := p.advanceMarkers(ctx, userID, monthKey, prev.MonthKey()); err != nil {
			return "", err
		}
		return RolloverGoalExists, nil
	}
	if err != nil {
		return "", fmt.Errorf("create rollover goal: %w", err)
	}

	if err := p.advanceMarkers(ctx, userID, monthKey, prev.MonthKey()); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Savings rolled over",
		"user_id", userID,
		"month", prev.MonthKey(),
		"goal_id", goalID,
		"entry_id", entryID,
		"amount_cents", savings.Cents)
	return RolloverCreated, nil
}

// ProcessAll runs the rollover for every user, a bounded number at a time.
// One user's failure does not stop the others; the first error is returned
// after the whole pass. Returns how many rollover goals were created.
func (p *RolloverProcessor) ProcessAll(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := p.storage.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	slog.InfoContext(ctx, "Processing savings rollover",
		"users", len(userIDs),
		"processing_date", now.Format("2006-01-02"))

	// Plain group, not WithContext: one user's failure must not cancel
	// the runs still in flight or queued behind the limit.
	created := make(chan struct{}, len(userIDs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			outcome, err := p.Process(ctx, userID, now)
			if err != nil {
				slog.ErrorContext(ctx, "Rollover failed",
					"user_id", userID, "error", err)
				return err
			}
			if outcome == RolloverCreated {
				created <- struct{}{}
			}
			return nil
		})
	}

	err = g.Wait()
	close(created)

	count := len(created)
	slog.InfoContext(ctx, "Savings rollover complete",
		"created", count, "users", len(userIDs))
	return count, err
}

// advanceMarkers records monthKey as handled. goalMonthKey is the closed
// month a rollover goal now exists for; it is empty on the paths where no
// goal was involved and the goal marker keeps its previous value.
func (p *RolloverProcessor) advanceMarkers(ctx context.Context, userID, monthKey, goalMonthKey string) error {
	if err := p.storage.SetPref(ctx, userID, storage.NamespaceRollover, prefLastMonth, monthKey); err != nil {
		return fmt.Errorf("advance rollover marker: %w", err)
	}
	if goalMonthKey == "" {
		return nil
	}
	if err := p.storage.SetPref(ctx, userID, storage.NamespaceRollover, prefLastGoalMonth, goalMonthKey); err != nil {
		return fmt.Errorf("advance goal marker: %w", err)
	}
	return nil
}
