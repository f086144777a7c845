package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
)

const expenseColumns = `
	e.id, e.user_id, e.amount, e.note, e.category_id,
	COALESCE(c.name, ''), e.payment_method, e.expense_date, e.is_draft,
	e.source_import_id, e.created_at, e.updated_at`

// CreateExpense inserts a new ledger row.
func (s *Store) CreateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
	query := `
		INSERT INTO expenses (id, user_id, amount, note, category_id, payment_method, expense_date, is_draft, source_import_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	out := *exp
	err := s.pool.QueryRow(ctx, query,
		exp.ID, exp.UserID, exp.Amount, exp.Note, nullable(exp.CategoryID),
		string(exp.PaymentMethod), exp.ExpenseDate, exp.IsDraft, nullable(exp.SourceImportID),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("CreateExpense: %w", err)
	}
	return &out, nil
}

// GetExpense fetches one expense owned by the user.
func (s *Store) GetExpense(ctx context.Context, userID, id string) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.id = $1 AND e.user_id = $2
	`
	exp, err := scanExpense(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("GetExpense: %w", err)
	}
	return exp, nil
}

// ListExpenses returns the user's expenses, newest first, honoring the
// filter's month, category, draft and paging constraints.
func (s *Store) ListExpenses(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
	`
	args := []any{userID}

	if !filter.IncludeDrafts {
		query += " AND e.is_draft = FALSE"
	}
	if filter.Month != "" {
		from, to := filter.Month.Bounds()
		query += fmt.Sprintf(" AND e.expense_date >= $%d AND e.expense_date < $%d", len(args)+1, len(args)+2)
		args = append(args, from, to)
	}
	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND e.category_id = $%d", len(args)+1)
		args = append(args, filter.CategoryID)
	}

	query += " ORDER BY e.expense_date DESC, e.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListExpenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("ListExpenses: scan: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	return expenses, rows.Err()
}

// ListExpensesBetween returns the user's committed expenses in [from, to),
// oldest first. The duplicate detector uses this to compare statement rows
// against the existing ledger.
func (s *Store) ListExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.is_draft = FALSE AND e.expense_date >= $2 AND e.expense_date < $3
		ORDER BY e.expense_date
	`
	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ListExpensesBetween: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("ListExpensesBetween: scan: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	return expenses, rows.Err()
}

// UpdateExpense rewrites an expense's mutable fields, including the draft
// flag.
func (s *Store) UpdateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
	query := `
		UPDATE expenses
		SET amount = $1, note = $2, category_id = $3, payment_method = $4,
		    expense_date = $5, is_draft = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING created_at, updated_at
	`
	out := *exp
	err := s.pool.QueryRow(ctx, query,
		exp.Amount, exp.Note, nullable(exp.CategoryID), string(exp.PaymentMethod),
		exp.ExpenseDate, exp.IsDraft, exp.ID, exp.UserID,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("UpdateExpense: %w", err)
	}
	return &out, nil
}

// CategorySpend is one category's committed total for a month.
type CategorySpend struct {
	CategoryID string
	Total      decimal.Decimal
}

// SpendByCategory sums the user's committed expenses per category for one
// month. Uncategorized spend is reported under an empty category ID.
func (s *Store) SpendByCategory(ctx context.Context, userID string, month domain.Month) ([]CategorySpend, error) {
	from, to := month.Bounds()
	query := `
		SELECT COALESCE(category_id, ''), SUM(amount)
		FROM expenses
		WHERE user_id = $1 AND is_draft = FALSE AND expense_date >= $2 AND expense_date < $3
		GROUP BY category_id
	`
	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("SpendByCategory: %w", err)
	}
	defer rows.Close()

	var totals []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		if err := rows.Scan(&cs.CategoryID, &cs.Total); err != nil {
			return nil, fmt.Errorf("SpendByCategory: scan: %w", err)
		}
		totals = append(totals, cs)
	}
	return totals, rows.Err()
}

// rowScanner lets the scan helpers work with both QueryRow and Query
// results.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var (
		exp        domain.Expense
		categoryID *string
		importID   *string
		method     string
	)
	err := row.Scan(
		&exp.ID, &exp.UserID, &exp.Amount, &exp.Note, &categoryID,
		&exp.CategoryName, &method, &exp.ExpenseDate, &exp.IsDraft,
		&importID, &exp.CreatedAt, &exp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		exp.CategoryID = *categoryID
	}
	if importID != nil {
		exp.SourceImportID = *importID
	}
	exp.PaymentMethod = domain.PaymentMethod(method)
	return &exp, nil
}

// nullable maps an empty string to SQL NULL for optional reference columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
