// Package stats derives fixed-size, zero-filled time series and
// category breakdowns from the transaction log. It only reads the
// store; results are snapshots and may trail concurrent mutations.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"pocket/internal/core"
	"pocket/internal/metrics"
	"pocket/internal/storage"
)

type Engine struct {
	store *storage.Repository
	now   func() time.Time
}

func New(store *storage.Repository) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

// Series is the aggregation result: a contiguous, ordered bucket
// sequence plus the count of transactions whose dates fell outside it.
type Series struct {
	Granularity core.Granularity `json:"granularity"`
	Buckets     []Bucket         `json:"buckets"`
	Unmatched   int              `json:"unmatched"`
}

// CategorySlice is one row of an expense breakdown. Percent is the
// slice's share of total expenses, rounded to the nearest integer.
type CategorySlice struct {
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Percent  int           `json:"percent"`
}

// Aggregate folds the owner's transactions into the precomputed bucket
// sequence for the granularity. Buckets with no transactions stay at
// zero; transactions outside the window are counted, not dropped
// silently.
func (e *Engine) Aggregate(ctx context.Context, ownerID string, g core.Granularity) (Series, error) {
	if err := g.Validate(); err != nil {
		return Series{}, err
	}

	buckets, start := makeBuckets(g, e.now())

	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b.Key] = i
	}

	txs, err := e.store.TransactionsSince(ctx, ownerID, start)
	if err != nil {
		return Series{}, fmt.Errorf("aggregate %s: %w", g, err)
	}

	unmatched := 0
	for _, t := range txs {
		i, ok := index[bucketKey(g, t.Date)]
		if !ok {
			unmatched++
			continue
		}
		switch t.Type {
		case core.Income:
			buckets[i].Income.Cents += t.Amount.Cents
		case core.Expense:
			buckets[i].Expense.Cents += t.Amount.Cents
		}
	}
	if unmatched > 0 {
		metrics.StatsUnmatched.Add(float64(unmatched))
		slog.WarnContext(ctx, "Transactions outside aggregation window",
			"owner_id", ownerID,
			"granularity", string(g),
			"count", unmatched)
	}

	return Series{Granularity: g, Buckets: buckets, Unmatched: unmatched}, nil
}

// CategoryBreakdown groups the owner's expenses by category within the
// optional date range (zero bounds mean unbounded). Uncategorized
// expenses land in the explicit others slice. A zero total yields zero
// percentages, never a division.
func (e *Engine) CategoryBreakdown(ctx context.Context, ownerID string, from, to time.Time) ([]CategorySlice, error) {
	expenses, err := e.store.ExpensesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	sums := make(map[core.Category]int64)
	var total int64
	for _, t := range expenses {
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = core.CategoryOther
		}
		sums[cat] += t.Amount.Cents
		total += t.Amount.Cents
	}

	slices := make([]CategorySlice, 0, len(sums))
	for cat, cents := range sums {
		pct := 0
		if total > 0 {
			pct = int((cents*100 + total/2) / total)
		}
		slices = append(slices, CategorySlice{
			Category: cat,
			Amount:   core.Money{Cents: cents},
			Percent:  pct,
		})
	}

	// Largest first; category name breaks ties so the order is stable.
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Amount.Cents != slices[j].Amount.Cents {
			return slices[i].Amount.Cents > slices[j].Amount.Cents
		}
		return slices[i].Category < slices[j].Category
	})

	return slices, nil
}
