package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pocket/internal/core"
	"pocket/internal/storage"
)

// fixedNow is a Wednesday; its week runs 2025-06-09 through 2025-06-15.
var fixedNow = time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "pocket.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	e := New(repo)
	e.now = func() time.Time { return fixedNow }
	return e, repo
}

func seed(t *testing.T, repo *storage.Repository, txs ...core.Transaction) {
	t.Helper()
	ctx := context.Background()
	err := repo.InTx(ctx, func(s *storage.Store) error {
		w, err := s.InsertWallet(ctx, core.Wallet{Name: "Main", OwnerID: "alice"})
		if err != nil {
			return err
		}
		for _, tx := range txs {
			tx.WalletID = w.ID
			tx.OwnerID = "alice"
			if _, err := s.InsertTransaction(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func onDate(typ core.TxType, cents int64, date time.Time, cat core.Category) core.Transaction {
	return core.Transaction{Type: typ, Amount: core.Money{Cents: cents}, Category: cat, Date: date}
}

func TestAggregateWeekly(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Income, 10000, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), ""),
		onDate(core.Expense, 4000, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), core.CategoryGroceries),
		onDate(core.Expense, 500, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), core.CategoryDining),
		onDate(core.Income, 1000, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), ""),
	)

	series, err := e.Aggregate(context.Background(), "alice", core.Weekly)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(series.Buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(series.Buckets))
	}
	if series.Buckets[0].Key != "2025-06-09" || series.Buckets[0].Label != "Mon" {
		t.Fatalf("week must start on Monday: %+v", series.Buckets[0])
	}
	if series.Buckets[6].Key != "2025-06-15" || series.Buckets[6].Label != "Sun" {
		t.Fatalf("week must end on Sunday: %+v", series.Buckets[6])
	}
	if series.Buckets[0].Income.Cents != 10000 {
		t.Fatalf("Monday income: %+v", series.Buckets[0])
	}
	if series.Buckets[2].Expense.Cents != 4500 {
		t.Fatalf("Wednesday expenses must sum: %+v", series.Buckets[2])
	}
	if series.Buckets[6].Income.Cents != 1000 {
		t.Fatalf("Sunday income: %+v", series.Buckets[6])
	}
	// Untouched days stay zero-filled.
	if series.Buckets[1].Income.Cents != 0 || series.Buckets[1].Expense.Cents != 0 {
		t.Fatalf("Tuesday must be zero: %+v", series.Buckets[1])
	}
	if series.Unmatched != 0 {
		t.Fatalf("expected 0 unmatched, got %d", series.Unmatched)
	}
}

func TestAggregateCountsUnmatched(t *testing.T) {
	e, repo := newTestEngine(t)
	// Dated after the week's Sunday: inside the read window, outside
	// every bucket.
	seed(t, repo,
		onDate(core.Income, 100, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), ""),
	)

	series, err := e.Aggregate(context.Background(), "alice", core.Weekly)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if series.Unmatched != 1 {
		t.Fatalf("expected 1 unmatched, got %d", series.Unmatched)
	}
	for _, b := range series.Buckets {
		if b.Income.Cents != 0 || b.Expense.Cents != 0 {
			t.Fatalf("unmatched transaction must not land in a bucket: %+v", b)
		}
	}
}

func TestAggregateMonthly(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Income, 5000, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), ""),
		onDate(core.Expense, 2000, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), core.CategoryRent),
	)

	series, err := e.Aggregate(context.Background(), "alice", core.Monthly)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(series.Buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(series.Buckets))
	}
	if series.Buckets[0].Key != "2025-01" || series.Buckets[0].Label != "Jan" {
		t.Fatalf("unexpected first month: %+v", series.Buckets[0])
	}
	if series.Buckets[11].Label != "Dec" {
		t.Fatalf("unexpected last month: %+v", series.Buckets[11])
	}
	if series.Buckets[2].Income.Cents != 5000 {
		t.Fatalf("March income: %+v", series.Buckets[2])
	}
	if series.Buckets[11].Expense.Cents != 2000 {
		t.Fatalf("December expense: %+v", series.Buckets[11])
	}
}

func TestAggregateYearly(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Income, 100, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), ""),
		onDate(core.Expense, 50, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), core.CategoryHealth),
		onDate(core.Income, 30, time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC), ""),
	)

	series, err := e.Aggregate(context.Background(), "alice", core.Yearly)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(series.Buckets) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(series.Buckets))
	}
	if series.Buckets[0].Key != "2023" || series.Buckets[4].Key != "2027" {
		t.Fatalf("expected a window centered on the current year: %+v", series.Buckets)
	}
	if series.Buckets[0].Income.Cents != 100 || series.Buckets[2].Expense.Cents != 50 || series.Buckets[4].Income.Cents != 30 {
		t.Fatalf("unexpected yearly fold: %+v", series.Buckets)
	}
}

func TestAggregateRejectsUnknownGranularity(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Aggregate(context.Background(), "alice", core.Granularity("day")); err == nil {
		t.Fatalf("expected error for unknown granularity")
	}
}

func TestCategoryBreakdown(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Expense, 300, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), core.CategoryGroceries),
		onDate(core.Expense, 100, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), core.CategoryDining),
		// Income never appears in a breakdown.
		onDate(core.Income, 9999, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), ""),
	)

	slices, err := e.CategoryBreakdown(context.Background(), "alice", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].Category != core.CategoryGroceries || slices[0].Percent != 75 {
		t.Fatalf("unexpected first slice: %+v", slices[0])
	}
	if slices[1].Category != core.CategoryDining || slices[1].Percent != 25 {
		t.Fatalf("unexpected second slice: %+v", slices[1])
	}
}

func TestCategoryBreakdownRangeAndUncategorized(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Expense, 200, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), core.CategoryRent),
		onDate(core.Expense, 100, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), ""),
	)

	from := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	slices, err := e.CategoryBreakdown(context.Background(), "alice", from, time.Time{})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(slices) != 1 {
		t.Fatalf("range must exclude the May expense: %+v", slices)
	}
	if slices[0].Category != core.CategoryOther || slices[0].Percent != 100 {
		t.Fatalf("uncategorized must land in others: %+v", slices[0])
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	e, repo := newTestEngine(t)
	seed(t, repo,
		onDate(core.Income, 500, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), ""),
	)

	slices, err := e.CategoryBreakdown(context.Background(), "alice", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(slices) != 0 {
		t.Fatalf("expected no slices without expenses, got %+v", slices)
	}
}
