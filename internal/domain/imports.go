package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus tracks a statement import through the pipeline.
//
// The normal path is pending -> processing -> extracted -> categorizing ->
// ready -> completed. A password-protected statement drops back from
// processing to pending with PasswordRequired set. Any stage may land in
// failed; parse and categorize can be retried from there.
type ImportStatus string

const (
	StatusPending      ImportStatus = "pending"
	StatusProcessing   ImportStatus = "processing"
	StatusExtracted    ImportStatus = "extracted"
	StatusCategorizing ImportStatus = "categorizing"
	StatusReady        ImportStatus = "ready"
	StatusCompleted    ImportStatus = "completed"
	StatusFailed       ImportStatus = "failed"
)

// Valid reports whether s is a known import status.
func (s ImportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusExtracted, StatusCategorizing,
		StatusReady, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further pipeline work is possible without a
// retry. Completed imports are final; failed ones may be re-run.
func (s ImportStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Active reports whether a client polling the import should keep polling.
func (s ImportStatus) Active() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCategorizing:
		return true
	}
	return false
}

// CanStartParse reports whether a parse job may be enqueued.
func (s ImportStatus) CanStartParse() bool {
	return s == StatusPending || s == StatusFailed
}

// CanStartCategorize reports whether a categorize job may be enqueued.
func (s ImportStatus) CanStartCategorize() bool {
	return s == StatusExtracted || s == StatusFailed
}

// CanCommit reports whether the import's selected rows may be written to the
// ledger.
func (s ImportStatus) CanCommit() bool {
	return s == StatusReady
}

// CanCancel reports whether the import may still be canceled.
func (s ImportStatus) CanCancel() bool {
	return s != StatusCompleted && s != StatusFailed
}

// StatementImport is one uploaded bank statement moving through the
// parse/categorize/commit pipeline. Rows expire ExpiresAt regardless of
// status.
type StatementImport struct {
	ID                   string       `json:"id"`
	UserID               string       `json:"user_id"`
	FileName             string       `json:"file_name"`
	FileURI              string       `json:"file_uri,omitempty"`
	FileHash             string       `json:"file_hash,omitempty"`
	BankName             string       `json:"bank_name,omitempty"`
	Status               ImportStatus `json:"status"`
	PasswordRequired     bool         `json:"password_required"`
	ErrorMessage         string       `json:"error_message,omitempty"`
	TotalTransactions    int          `json:"total_transactions"`
	ImportedTransactions int          `json:"imported_transactions"`
	PeriodStart          *time.Time   `json:"period_start,omitempty"`
	PeriodEnd            *time.Time   `json:"period_end,omitempty"`
	ExpiresAt            time.Time    `json:"expires_at"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Expired reports whether the import has passed its retention deadline.
func (si *StatementImport) Expired(now time.Time) bool {
	return !si.ExpiresAt.IsZero() && now.After(si.ExpiresAt)
}

// TxnType is the direction of a statement row.
type TxnType string

const (
	TxnDebit  TxnType = "debit"
	TxnCredit TxnType = "credit"
)

// ExtractedTransaction is one statement row produced by the parser and
// staged for review. Rows live only as long as their import. DuplicateOf
// points at the ledger expense a duplicate matched.
type ExtractedTransaction struct {
	ID                  string              `json:"id"`
	ImportID            string              `json:"import_id"`
	Date                time.Time           `json:"txn_date"`
	Description         string              `json:"description"`
	Amount              decimal.Decimal     `json:"amount"`
	Type                TxnType             `json:"txn_type"`
	Balance             decimal.NullDecimal `json:"balance"`
	RawText             string              `json:"raw_text,omitempty"`
	SuggestedCategoryID string              `json:"suggested_category_id,omitempty"`
	AIConfidence        float64             `json:"ai_confidence"`
	IsSelected          bool                `json:"is_selected"`
	IsDuplicate         bool                `json:"is_duplicate"`
	DuplicateOf         string              `json:"duplicate_of,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}
