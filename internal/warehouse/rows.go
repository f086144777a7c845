// Package warehouse mirrors committed expenses into BigQuery for ad-hoc
// analysis. The sync is idempotent per user and month: stale warehouse rows
// are deleted, missing ones inserted and matching ones left alone.
package warehouse

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// ExpenseRow is one ledger expense in the warehouse schema.
type ExpenseRow struct {
	ExpenseID string `bigquery:"expense_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED
	Month  string `bigquery:"month"`   // REQUIRED, "YYYY-MM"

	ExpenseDate civil.Date `bigquery:"expense_date"` // REQUIRED
	Amount      *big.Rat   `bigquery:"amount"`       // REQUIRED NUMERIC

	Note          bigquery.NullString `bigquery:"note"`           // NULLABLE
	PaymentMethod string              `bigquery:"payment_method"` // REQUIRED

	CategoryID   bigquery.NullString `bigquery:"category_id"`   // NULLABLE
	CategoryName bigquery.NullString `bigquery:"category_name"` // NULLABLE
	CategoryType bigquery.NullString `bigquery:"category_type"` // NULLABLE

	SourceImportID bigquery.NullString `bigquery:"source_import_id"` // NULLABLE

	SyncedTS time.Time `bigquery:"synced_ts"` // REQUIRED
}

// RowFromExpense maps a ledger expense onto the warehouse schema. The
// category, when known, enriches the row with its resolved type.
func RowFromExpense(e domain.Expense, cat *domain.Category, month domain.Month, now time.Time) *ExpenseRow {
	row := &ExpenseRow{
		ExpenseID:      e.ID,
		UserID:         e.UserID,
		Month:          string(month),
		ExpenseDate:    civil.DateOf(e.ExpenseDate),
		Amount:         e.Amount.Rat(),
		Note:           nullString(e.Note),
		PaymentMethod:  string(e.PaymentMethod),
		CategoryID:     nullString(e.CategoryID),
		CategoryName:   nullString(e.CategoryName),
		SourceImportID: nullString(e.SourceImportID),
		SyncedTS:       now,
	}
	if cat != nil {
		row.CategoryType = nullString(string(cat.ResolvedType()))
	}
	return row
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
