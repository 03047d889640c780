package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	err := repo.CreateUser(context.Background(), core.User{
		ID: id, Username: "user-" + id, Email: id + "@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func insertEntry(t *testing.T, repo *storage.SQLiteRepository, userID, date string, cents int64) {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", date, err)
	}
	_, err = repo.InsertTransaction(context.Background(), core.Transaction{
		Label: "entry", Amount: core.Money{Cents: cents}, Date: d, UserID: userID,
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
}

func TestRolloverFirstRunInitializesMarkers(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	outcome, err := p.Process(ctx, "u1", now)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != RolloverInitialized {
		t.Fatalf("expected initialized, got %s", outcome)
	}

	// No goal is created on first sight of a user.
	goals, err := repo.ListGoalsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoalsByUser: %v", err)
	}
	if len(goals) != 0 {
		t.Fatalf("expected no goals, got %d", len(goals))
	}

	// Same month again is a no-op.
	outcome, err = p.Process(ctx, "u1", now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if outcome != RolloverNotDue {
		t.Fatalf("expected not_due, got %s", outcome)
	}
}

func TestRolloverCreatesGoalAndOffsetEntry(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	// Initialize markers in May, then ledger activity: +500.00 and -120.50.
	may := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if _, err := p.Process(ctx, "u1", may); err != nil {
		t.Fatalf("init Process: %v", err)
	}
	insertEntry(t, repo, "u1", "2024-05-01", 50000)
	insertEntry(t, repo, "u1", "2024-05-15", -12050)

	june := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	outcome, err := p.Process(ctx, "u1", june)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != RolloverCreated {
		t.Fatalf("expected created, got %s", outcome)
	}

	goal, err := repo.GetGoalByTitle(ctx, "u1", "Remaining May 2024")
	if err != nil {
		t.Fatalf("GetGoalByTitle: %v", err)
	}
	if goal.TargetAmount.Cents != 37950 || goal.CurrentAmount.Cents != 37950 {
		t.Fatalf("goal starts full at the saved amount, got target=%d current=%d",
			goal.TargetAmount.Cents, goal.CurrentAmount.Cents)
	}

	entries, err := repo.ListTransactionsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTransactionsByUser: %v", err)
	}
	var offset *core.Transaction
	for i := range entries {
		if entries[i].LinkedGoalID == goal.ID {
			offset = &entries[i]
		}
	}
	if offset == nil {
		t.Fatal("no offsetting entry linked to the rollover goal")
	}
	if offset.Amount.Cents != -37950 {
		t.Errorf("offset amount = %d, want -37950", offset.Amount.Cents)
	}
	if offset.Date.String() != "2024-05-31" {
		t.Errorf("offset dated %s, want last day of May", offset.Date)
	}

	// The closed month nets to zero once the offset lands.
	mayEntries, err := repo.ListTransactionsByMonth(ctx, "u1", offset.Date)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth: %v", err)
	}
	if net := core.Summarize(mayEntries).Net; net.Cents != 0 {
		t.Errorf("May nets to %d after rollover, want 0", net.Cents)
	}
}

func TestRolloverIsIdempotentWithinMonth(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	if _, err := p.Process(ctx, "u1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("init Process: %v", err)
	}
	insertEntry(t, repo, "u1", "2024-05-10", 10000)

	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if outcome, err := p.Process(ctx, "u1", june); err != nil || outcome != RolloverCreated {
		t.Fatalf("first run: outcome=%s err=%v", outcome, err)
	}
	if outcome, err := p.Process(ctx, "u1", june.Add(48*time.Hour)); err != nil || outcome != RolloverNotDue {
		t.Fatalf("second run: outcome=%s err=%v", outcome, err)
	}

	goals, err := repo.ListGoalsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoalsByUser: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected exactly one rollover goal, got %d", len(goals))
	}
}

func TestRolloverSkipsWhenNothingSaved(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	if _, err := p.Process(ctx, "u1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("init Process: %v", err)
	}
	// Spent more than earned.
	insertEntry(t, repo, "u1", "2024-05-01", 10000)
	insertEntry(t, repo, "u1", "2024-05-20", -25000)

	outcome, err := p.Process(ctx, "u1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != RolloverNoSavings {
		t.Fatalf("expected no_savings, got %s", outcome)
	}
	goals, err := repo.ListGoalsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoalsByUser: %v", err)
	}
	if len(goals) != 0 {
		t.Fatalf("expected no goals for a deficit month, got %d", len(goals))
	}
}

func TestRolloverSkipsWhenGoalAlreadyExists(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	if _, err := p.Process(ctx, "u1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("init Process: %v", err)
	}
	insertEntry(t, repo, "u1", "2024-05-10", 10000)

	// The goal is already there, for instance created by hand.
	if _, err := repo.InsertGoal(ctx, core.SavingsGoal{
		Title: "Remaining May 2024", TargetAmount: core.Money{Cents: 1}, UserID: "u1",
	}); err != nil {
		t.Fatalf("InsertGoal: %v", err)
	}

	outcome, err := p.Process(ctx, "u1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != RolloverGoalExists {
		t.Fatalf("expected goal_exists, got %s", outcome)
	}
}

func TestProcessAllCountsCreatedGoals(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	may := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"u1", "u2", "u3"} {
		seedUser(t, repo, id)
		if _, err := p.Process(ctx, id, may); err != nil {
			t.Fatalf("init Process(%s): %v", id, err)
		}
	}
	insertEntry(t, repo, "u1", "2024-05-10", 10000)
	insertEntry(t, repo, "u2", "2024-05-10", -5000) // deficit, no goal
	insertEntry(t, repo, "u3", "2024-05-10", 20000)

	count, err := p.ProcessAll(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 goals created, got %d", count)
	}
}

func TestProcessAllContinuesPastFailingUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	p := NewRolloverProcessor(repo)
	p.concurrency = 1 // serial, so the bad user runs before the good one

	may := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"a-bad", "b-good"} {
		seedUser(t, repo, id)
		if _, err := p.Process(ctx, id, may); err != nil {
			t.Fatalf("init Process(%s): %v", id, err)
		}
		insertEntry(t, repo, id, "2024-05-10", 50000)
	}

	// Break the first user's ledger so their rollover fails.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(`UPDATE transactions SET entry_date = 'garbage' WHERE user_id = 'a-bad'`); err != nil {
		t.Fatalf("corrupt entry_date: %v", err)
	}
	db.Close()

	count, err := p.ProcessAll(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected the failing user's error to surface")
	}
	if count != 1 {
		t.Fatalf("expected 1 goal created despite the failure, got %d", count)
	}
	if _, err := repo.GetGoalByTitle(ctx, "b-good", "Remaining May 2024"); err != nil {
		t.Fatalf("later user missed their rollover: %v", err)
	}
}

func TestRolloverGoalMarkerRecordsClosedMonth(t *testing.T) {
	repo := newTestStorage(t)
	seedUser(t, repo, "u1")
	ctx := context.Background()
	p := NewRolloverProcessor(repo)

	may := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	if _, err := p.Process(ctx, "u1", may); err != nil {
		t.Fatalf("init Process: %v", err)
	}
	// no goal yet, so no goal marker either
	if _, err := repo.GetPref(ctx, "u1", storage.NamespaceRollover, prefLastGoalMonth); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("goal marker after init: got %v, want ErrNotFound", err)
	}

	// a deficit month advances last_month but leaves the goal marker alone
	insertEntry(t, repo, "u1", "2024-05-10", -5000)
	if _, err := p.Process(ctx, "u1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("June Process: %v", err)
	}
	if _, err := repo.GetPref(ctx, "u1", storage.NamespaceRollover, prefLastGoalMonth); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("goal marker after deficit month: got %v, want ErrNotFound", err)
	}

	// a saved month records the closed month, not the current one
	insertEntry(t, repo, "u1", "2024-06-10", 30000)
	outcome, err := p.Process(ctx, "u1", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("July Process: %v", err)
	}
	if outcome != RolloverCreated {
		t.Fatalf("expected created, got %s", outcome)
	}
	marker, err := repo.GetPref(ctx, "u1", storage.NamespaceRollover, prefLastGoalMonth)
	if err != nil {
		t.Fatalf("GetPref: %v", err)
	}
	if marker != "2024-06" {
		t.Fatalf("goal marker = %q, want 2024-06", marker)
	}
}
