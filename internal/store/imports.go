package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rupeelog/rupeelog/internal/domain"
)

const importColumns = `
	id, user_id, file_name, file_uri, file_hash, bank_name, status,
	password_required, error_message, total_transactions, imported_transactions,
	period_start, period_end, expires_at, created_at, updated_at`

const extractedColumns = `
	id, import_id, txn_date, description, amount, txn_type, balance, raw_text,
	suggested_category_id, ai_confidence, is_selected, is_duplicate, duplicate_of, created_at`

// CreateImport inserts a new statement import in pending state.
func (s *Store) CreateImport(ctx context.Context, si *domain.StatementImport) (*domain.StatementImport, error) {
	query := `
		INSERT INTO statement_imports (id, user_id, file_name, file_uri, file_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	out := *si
	err := s.pool.QueryRow(ctx, query,
		si.ID, si.UserID, si.FileName, si.FileURI, si.FileHash, string(si.Status), si.ExpiresAt,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("CreateImport: %w", err)
	}
	return &out, nil
}

// GetImport fetches one import owned by the user.
func (s *Store) GetImport(ctx context.Context, userID, id string) (*domain.StatementImport, error) {
	query := `SELECT ` + importColumns + ` FROM statement_imports WHERE id = $1 AND user_id = $2`
	si, err := scanImport(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("GetImport: %w", err)
	}
	return si, nil
}

// GetImportByHash returns the user's most recent non-failed import of the
// same file contents, if any. Used to warn about duplicate uploads.
func (s *Store) GetImportByHash(ctx context.Context, userID, hash string) (*domain.StatementImport, error) {
	query := `
		SELECT ` + importColumns + `
		FROM statement_imports
		WHERE user_id = $1 AND file_hash = $2 AND status != 'failed'
		ORDER BY created_at DESC
		LIMIT 1
	`
	si, err := scanImport(s.pool.QueryRow(ctx, query, userID, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("GetImportByHash: %w", err)
	}
	return si, nil
}

// ListImports returns the user's imports, newest first.
func (s *Store) ListImports(ctx context.Context, userID string, limit int) ([]domain.StatementImport, error) {
	query := `SELECT ` + importColumns + ` FROM statement_imports WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListImports: %w", err)
	}
	defer rows.Close()

	var imports []domain.StatementImport
	for rows.Next() {
		si, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("ListImports: scan: %w", err)
		}
		imports = append(imports, *si)
	}
	return imports, rows.Err()
}

// SetImportStatus moves an import to a new status, recording the failure
// message when there is one.
func (s *Store) SetImportStatus(ctx context.Context, id string, status domain.ImportStatus, errMsg string) error {
	query := `
		UPDATE statement_imports
		SET status = $1, error_message = $2, updated_at = now()
		WHERE id = $3
	`
	cmd, err := s.pool.Exec(ctx, query, string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("SetImportStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkImportPasswordRequired drops an import back to pending and flags that
// the client must resubmit with the statement password. Not a failure: no
// error message is recorded.
func (s *Store) MarkImportPasswordRequired(ctx context.Context, id string) error {
	query := `
		UPDATE statement_imports
		SET status = 'pending', password_required = TRUE, error_message = '', updated_at = now()
		WHERE id = $1
	`
	cmd, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("MarkImportPasswordRequired: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkImportExtracted records a successful parse with the statement's
// metadata.
func (s *Store) MarkImportExtracted(ctx context.Context, id, bankName string, total int, periodStart, periodEnd *time.Time) error {
	query := `
		UPDATE statement_imports
		SET status = 'extracted', bank_name = $1, total_transactions = $2,
		    period_start = $3, period_end = $4,
		    password_required = FALSE, error_message = '', updated_at = now()
		WHERE id = $5
	`
	cmd, err := s.pool.Exec(ctx, query, bankName, total, periodStart, periodEnd, id)
	if err != nil {
		return fmt.Errorf("MarkImportExtracted: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceExtracted swaps the staged rows for an import in one transaction.
// A re-parse therefore never leaves rows from the previous run behind.
func (s *Store) ReplaceExtracted(ctx context.Context, importID string, txns []domain.ExtractedTransaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ReplaceExtracted: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM extracted_transactions WHERE import_id = $1`, importID); err != nil {
		return fmt.Errorf("ReplaceExtracted: delete: %w", err)
	}

	query := `
		INSERT INTO extracted_transactions
			(id, import_id, txn_date, description, amount, txn_type, balance, raw_text,
			 suggested_category_id, ai_confidence, is_selected, is_duplicate, duplicate_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for _, t := range txns {
		_, err := tx.Exec(ctx, query,
			t.ID, importID, t.Date, t.Description, t.Amount, string(t.Type), t.Balance, t.RawText,
			nullable(t.SuggestedCategoryID), t.AIConfidence, t.IsSelected, t.IsDuplicate, nullable(t.DuplicateOf),
		)
		if err != nil {
			return fmt.Errorf("ReplaceExtracted: insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ReplaceExtracted: commit: %w", err)
	}
	return nil
}

// UpdateExtractedBatch writes categorize results for many rows in one round
// trip.
func (s *Store) UpdateExtractedBatch(ctx context.Context, txns []domain.ExtractedTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	query := `
		UPDATE extracted_transactions
		SET suggested_category_id = $1, ai_confidence = $2,
		    is_selected = $3, is_duplicate = $4, duplicate_of = $5
		WHERE id = $6
	`
	batch := &pgx.Batch{}
	for _, t := range txns {
		batch.Queue(query,
			nullable(t.SuggestedCategoryID), t.AIConfidence,
			t.IsSelected, t.IsDuplicate, nullable(t.DuplicateOf), t.ID,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range txns {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("UpdateExtractedBatch: %w", err)
		}
	}
	return nil
}

// ListExtracted returns the staged rows for an import in statement order.
func (s *Store) ListExtracted(ctx context.Context, importID string) ([]domain.ExtractedTransaction, error) {
	query := `
		SELECT ` + extractedColumns + `
		FROM extracted_transactions
		WHERE import_id = $1
		ORDER BY txn_date, created_at
	`
	rows, err := s.pool.Query(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("ListExtracted: %w", err)
	}
	defer rows.Close()

	var txns []domain.ExtractedTransaction
	for rows.Next() {
		t, err := scanExtracted(rows)
		if err != nil {
			return nil, fmt.Errorf("ListExtracted: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

// UpdateExtractedSelection applies a reviewer's tweak to one staged row.
// Nil fields are left unchanged; an empty category clears the suggestion.
func (s *Store) UpdateExtractedSelection(ctx context.Context, importID, txnID string, isSelected *bool, categoryID *string) (*domain.ExtractedTransaction, error) {
	query := `
		UPDATE extracted_transactions
		SET is_selected = COALESCE($1, is_selected),
		    suggested_category_id = CASE WHEN $2::text IS NULL THEN suggested_category_id ELSE NULLIF($2, '') END
		WHERE id = $3 AND import_id = $4
		RETURNING ` + extractedColumns
	t, err := scanExtracted(s.pool.QueryRow(ctx, query, isSelected, categoryID, txnID, importID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("UpdateExtractedSelection: %w", err)
	}
	return t, nil
}

// CommitImport writes the reviewed rows to the ledger and marks the import
// completed, all inside one transaction.
func (s *Store) CommitImport(ctx context.Context, importID string, expenses []domain.Expense) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("CommitImport: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO expenses (id, user_id, amount, note, category_id, payment_method, expense_date, is_draft, source_import_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, exp := range expenses {
		_, err := tx.Exec(ctx, query,
			exp.ID, exp.UserID, exp.Amount, exp.Note, nullable(exp.CategoryID),
			string(exp.PaymentMethod), exp.ExpenseDate, exp.IsDraft, importID,
		)
		if err != nil {
			return fmt.Errorf("CommitImport: insert expense: %w", err)
		}
	}

	cmd, err := tx.Exec(ctx, `
		UPDATE statement_imports
		SET status = 'completed', imported_transactions = $1, updated_at = now()
		WHERE id = $2
	`, len(expenses), importID)
	if err != nil {
		return fmt.Errorf("CommitImport: update status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("CommitImport: commit: %w", err)
	}
	return nil
}

// DeleteImport removes one import row; staged rows cascade away.
func (s *Store) DeleteImport(ctx context.Context, userID, id string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM statement_imports WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteImport: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpiredImports removes imports past their retention deadline along
// with their staged rows. Returns the file URIs of the removed imports so
// the caller can clean up blob storage.
func (s *Store) DeleteExpiredImports(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		DELETE FROM statement_imports
		WHERE expires_at < $1
		RETURNING file_uri
	`
	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("DeleteExpiredImports: %w", err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("DeleteExpiredImports: scan: %w", err)
		}
		if uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris, rows.Err()
}

func scanImport(row rowScanner) (*domain.StatementImport, error) {
	var si domain.StatementImport
	var status string
	err := row.Scan(
		&si.ID, &si.UserID, &si.FileName, &si.FileURI, &si.FileHash, &si.BankName, &status,
		&si.PasswordRequired, &si.ErrorMessage, &si.TotalTransactions, &si.ImportedTransactions,
		&si.PeriodStart, &si.PeriodEnd, &si.ExpiresAt, &si.CreatedAt, &si.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	si.Status = domain.ImportStatus(status)
	return &si, nil
}

func scanExtracted(row rowScanner) (*domain.ExtractedTransaction, error) {
	var (
		t           domain.ExtractedTransaction
		txnType     string
		categoryID  *string
		duplicateOf *string
	)
	err := row.Scan(
		&t.ID, &t.ImportID, &t.Date, &t.Description, &t.Amount, &txnType, &t.Balance, &t.RawText,
		&categoryID, &t.AIConfidence, &t.IsSelected, &t.IsDuplicate, &duplicateOf, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TxnType(txnType)
	if categoryID != nil {
		t.SuggestedCategoryID = *categoryID
	}
	if duplicateOf != nil {
		t.DuplicateOf = *duplicateOf
	}
	return &t, nil
}
