package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rupeelog/rupeelog/internal/domain"
)

const categoryColumns = `
	id, user_id, name, color, icon, monthly_budget, alert_threshold,
	category_type, created_at, updated_at`

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (id, user_id, name, color, icon, monthly_budget, alert_threshold, category_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	out := *cat
	err := s.pool.QueryRow(ctx, query,
		cat.ID, cat.UserID, cat.Name, cat.Color, cat.Icon,
		cat.MonthlyBudget, cat.AlertThreshold, nullable(string(cat.Type)),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("CreateCategory: name %q: %w", cat.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return &out, nil
}

// GetCategory fetches one category owned by the user.
func (s *Store) GetCategory(ctx context.Context, userID, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	cat, err := scanCategory(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("GetCategory: %w", err)
	}
	return cat, nil
}

// ListCategories returns all of the user's categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY name`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("ListCategories: scan: %w", err)
		}
		cats = append(cats, *cat)
	}
	return cats, rows.Err()
}

// UpdateCategory rewrites a category's mutable fields.
func (s *Store) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = $1, color = $2, icon = $3, monthly_budget = $4,
		    alert_threshold = $5, category_type = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING created_at, updated_at
	`
	out := *cat
	err := s.pool.QueryRow(ctx, query,
		cat.Name, cat.Color, cat.Icon, cat.MonthlyBudget,
		cat.AlertThreshold, nullable(string(cat.Type)), cat.ID, cat.UserID,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("UpdateCategory: name %q: %w", cat.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	return &out, nil
}

// DeleteCategory removes a category. Expenses referencing it keep their rows
// with the category cleared; month overrides cascade away.
func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var cat domain.Category
	var typ *string
	err := row.Scan(
		&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &cat.Icon,
		&cat.MonthlyBudget, &cat.AlertThreshold, &typ,
		&cat.CreatedAt, &cat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if typ != nil {
		cat.Type = domain.CategoryType(*typ)
	}
	return &cat, nil
}
