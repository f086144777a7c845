package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// UpsertCategoryBudget creates or replaces the month override for one
// category. The (user, category, month) key is unique so repeated saves
// update in place.
func (s *Store) UpsertCategoryBudget(ctx context.Context, cb *domain.CategoryBudget) (*domain.CategoryBudget, error) {
	query := `
		INSERT INTO category_budgets (id, user_id, category_id, month, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, category_id, month)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
		RETURNING id, created_at, updated_at
	`
	out := *cb
	err := s.pool.QueryRow(ctx, query,
		cb.ID, cb.UserID, cb.CategoryID, string(cb.Month), cb.Amount,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("UpsertCategoryBudget: %w", err)
	}
	return &out, nil
}

// GetCategoryBudget fetches the override for one category and month.
func (s *Store) GetCategoryBudget(ctx context.Context, userID, categoryID string, month domain.Month) (*domain.CategoryBudget, error) {
	query := `
		SELECT id, user_id, category_id, month, amount, created_at, updated_at
		FROM category_budgets
		WHERE user_id = $1 AND category_id = $2 AND month = $3
	`
	var cb domain.CategoryBudget
	var m string
	err := s.pool.QueryRow(ctx, query, userID, categoryID, string(month)).Scan(
		&cb.ID, &cb.UserID, &cb.CategoryID, &m, &cb.Amount, &cb.CreatedAt, &cb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("GetCategoryBudget: %w", err)
	}
	cb.Month = domain.Month(m)
	return &cb, nil
}

// ListCategoryBudgets returns all overrides for one month keyed by category.
func (s *Store) ListCategoryBudgets(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error) {
	query := `
		SELECT category_id, amount
		FROM category_budgets
		WHERE user_id = $1 AND month = $2
	`
	rows, err := s.pool.Query(ctx, query, userID, string(month))
	if err != nil {
		return nil, fmt.Errorf("ListCategoryBudgets: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]decimal.Decimal)
	for rows.Next() {
		var categoryID string
		var amount decimal.Decimal
		if err := rows.Scan(&categoryID, &amount); err != nil {
			return nil, fmt.Errorf("ListCategoryBudgets: scan: %w", err)
		}
		overrides[categoryID] = amount
	}
	return overrides, rows.Err()
}

// DeleteCategoryBudget removes a month override, falling the category back
// to its default budget.
func (s *Store) DeleteCategoryBudget(ctx context.Context, userID, categoryID string, month domain.Month) error {
	query := `DELETE FROM category_budgets WHERE user_id = $1 AND category_id = $2 AND month = $3`
	cmd, err := s.pool.Exec(ctx, query, userID, categoryID, string(month))
	if err != nil {
		return fmt.Errorf("DeleteCategoryBudget: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
