package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/logger"
)

// Store is the ledger surface the syncer reads from.
type Store interface {
	ListExpenses(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// Syncer mirrors one user-month of the ledger into the warehouse.
type Syncer struct {
	store Store
	wh    Warehouse
}

func NewSyncer(store Store, wh Warehouse) *Syncer {
	return &Syncer{store: store, wh: wh}
}

// Result summarizes one sync run.
type Result struct {
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// SyncMonth reconciles the warehouse against the ledger for one month.
// Warehouse rows whose expense no longer exists are deleted, ledger expenses
// not yet mirrored are inserted, and rows present on both sides are left
// untouched. Running it twice in a row changes nothing the second time.
func (s *Syncer) SyncMonth(ctx context.Context, userID string, month domain.Month, dryRun bool) (*Result, error) {
	if !month.Valid() {
		return nil, fmt.Errorf("SyncMonth: month %q: %w", month, domain.ErrInvalidInput)
	}

	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Str("month", string(month)).
		Bool("dry_run", dryRun).
		Logger()
	log.Info().Msg("starting warehouse sync")

	expenses, err := s.store.ListExpenses(ctx, userID, domain.ExpenseFilter{Month: month})
	if err != nil {
		return nil, fmt.Errorf("SyncMonth: list expenses: %w", err)
	}

	validIDs := make(map[string]bool, len(expenses))
	for _, e := range expenses {
		validIDs[e.ID] = true
	}

	existingIDs, err := s.wh.ExistingIDs(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("SyncMonth: existing ids: %w", err)
	}
	log.Info().Int("ledger", len(expenses)).Int("warehouse", len(existingIDs)).Msg("loaded both sides")

	res := &Result{Total: len(expenses)}

	var stale []string
	for id := range existingIDs {
		if !validIDs[id] {
			stale = append(stale, id)
		}
	}
	res.Deleted = len(stale)
	if len(stale) > 0 && !dryRun {
		if err := s.wh.DeleteRows(ctx, userID, month, stale); err != nil {
			return nil, fmt.Errorf("SyncMonth: delete stale: %w", err)
		}
	}

	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SyncMonth: list categories: %w", err)
	}
	byID := make(map[string]*domain.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	now := time.Now()
	var rows []*ExpenseRow
	for _, e := range expenses {
		if existingIDs[e.ID] {
			res.Skipped++
			continue
		}
		rows = append(rows, RowFromExpense(e, byID[e.CategoryID], month, now))
	}
	res.Inserted = len(rows)
	if len(rows) > 0 && !dryRun {
		if err := s.wh.InsertRows(ctx, rows); err != nil {
			return nil, fmt.Errorf("SyncMonth: insert rows: %w", err)
		}
	}

	log.Info().
		Int("deleted", res.Deleted).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Int("total", res.Total).
		Msg("warehouse sync completed")
	return res, nil
}
