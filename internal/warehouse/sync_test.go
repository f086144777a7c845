package warehouse

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
)

type mockLedger struct {
	expenses   []domain.Expense
	categories []domain.Category
}

func (m *mockLedger) ListExpenses(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	return m.expenses, nil
}

func (m *mockLedger) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	return m.categories, nil
}

type mockWarehouse struct {
	existing map[string]bool
	deleted  []string
	inserted []*ExpenseRow

	existingErr error
}

func (m *mockWarehouse) ExistingIDs(ctx context.Context, userID string, month domain.Month) (map[string]bool, error) {
	if m.existingErr != nil {
		return nil, m.existingErr
	}
	return m.existing, nil
}

func (m *mockWarehouse) DeleteRows(ctx context.Context, userID string, month domain.Month, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockWarehouse) InsertRows(ctx context.Context, rows []*ExpenseRow) error {
	m.inserted = append(m.inserted, rows...)
	return nil
}

func exp(id, categoryID, amount string, d time.Time) domain.Expense {
	return domain.Expense{
		ID:            id,
		UserID:        "user-1",
		Amount:        decimal.RequireFromString(amount),
		Note:          "note " + id,
		CategoryID:    categoryID,
		PaymentMethod: domain.PaymentUPI,
		ExpenseDate:   d,
	}
}

func TestSyncMonthReconciles(t *testing.T) {
	d := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		expenses: []domain.Expense{
			exp("e1", "c1", "450.50", d),
			exp("e2", "", "120", d),
			exp("e3", "c1", "999", d),
		},
		categories: []domain.Category{
			{ID: "c1", Name: "Groceries"},
		},
	}
	wh := &mockWarehouse{existing: map[string]bool{
		"e1":    true, // already mirrored, keep
		"stale": true, // no longer in the ledger, delete
	}}

	res, err := NewSyncer(ledger, wh).SyncMonth(context.Background(), "user-1", domain.Month("2025-07"), false)
	if err != nil {
		t.Fatalf("SyncMonth: %v", err)
	}

	if res.Deleted != 1 || res.Inserted != 2 || res.Skipped != 1 || res.Total != 3 {
		t.Errorf("result = %+v, want 1 deleted, 2 inserted, 1 skipped of 3", res)
	}
	if len(wh.deleted) != 1 || wh.deleted[0] != "stale" {
		t.Errorf("deleted = %v, want [stale]", wh.deleted)
	}

	var insertedIDs []string
	for _, r := range wh.inserted {
		insertedIDs = append(insertedIDs, r.ExpenseID)
	}
	sort.Strings(insertedIDs)
	if len(insertedIDs) != 2 || insertedIDs[0] != "e2" || insertedIDs[1] != "e3" {
		t.Errorf("inserted = %v, want [e2 e3]", insertedIDs)
	}

	for _, r := range wh.inserted {
		if r.Month != "2025-07" || r.UserID != "user-1" {
			t.Errorf("row scoping = %s/%s, want user-1/2025-07", r.UserID, r.Month)
		}
		if r.ExpenseID == "e3" && r.CategoryType.StringVal != "needs" {
			t.Errorf("e3 category type = %+v, want needs (inferred from Groceries)", r.CategoryType)
		}
		if r.ExpenseID == "e2" && r.CategoryType.Valid {
			t.Errorf("uncategorized row should not carry a category type: %+v", r.CategoryType)
		}
	}
}

func TestSyncMonthIdempotent(t *testing.T) {
	d := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	ledger := &mockLedger{expenses: []domain.Expense{exp("e1", "", "100", d)}}
	wh := &mockWarehouse{existing: map[string]bool{"e1": true}}

	res, err := NewSyncer(ledger, wh).SyncMonth(context.Background(), "user-1", domain.Month("2025-07"), false)
	if err != nil {
		t.Fatalf("SyncMonth: %v", err)
	}
	if res.Deleted != 0 || res.Inserted != 0 || res.Skipped != 1 {
		t.Errorf("second run should be a no-op, got %+v", res)
	}
	if len(wh.deleted) != 0 || len(wh.inserted) != 0 {
		t.Error("no warehouse writes expected when both sides match")
	}
}

func TestSyncMonthDryRun(t *testing.T) {
	d := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	ledger := &mockLedger{expenses: []domain.Expense{exp("e1", "", "100", d)}}
	wh := &mockWarehouse{existing: map[string]bool{"stale": true}}

	res, err := NewSyncer(ledger, wh).SyncMonth(context.Background(), "user-1", domain.Month("2025-07"), true)
	if err != nil {
		t.Fatalf("SyncMonth: %v", err)
	}
	if res.Deleted != 1 || res.Inserted != 1 {
		t.Errorf("dry run should still count work: %+v", res)
	}
	if len(wh.deleted) != 0 || len(wh.inserted) != 0 {
		t.Error("dry run must not write")
	}
}

func TestSyncMonthValidatesMonth(t *testing.T) {
	syncer := NewSyncer(&mockLedger{}, &mockWarehouse{})
	if _, err := syncer.SyncMonth(context.Background(), "user-1", domain.Month("07-2025"), false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRowFromExpense(t *testing.T) {
	d := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	e := domain.Expense{
		ID:             "e1",
		UserID:         "user-1",
		Amount:         decimal.RequireFromString("450.50"),
		Note:           "Swiggy order",
		CategoryID:     "c1",
		CategoryName:   "Food",
		PaymentMethod:  domain.PaymentBank,
		ExpenseDate:    d,
		SourceImportID: "imp-1",
	}
	cat := &domain.Category{ID: "c1", Name: "Food", Type: domain.TypeWants}

	now := time.Now()
	row := RowFromExpense(e, cat, domain.Month("2025-07"), now)

	if row.ExpenseDate.String() != "2025-07-03" {
		t.Errorf("date = %s", row.ExpenseDate)
	}
	if row.Amount.FloatString(2) != "450.50" {
		t.Errorf("amount = %s, want 450.50", row.Amount.FloatString(2))
	}
	if !row.Note.Valid || row.Note.StringVal != "Swiggy order" {
		t.Errorf("note = %+v", row.Note)
	}
	if row.CategoryType.StringVal != "wants" {
		t.Errorf("category type = %+v, want explicit wants", row.CategoryType)
	}
	if !row.SourceImportID.Valid || row.SourceImportID.StringVal != "imp-1" {
		t.Errorf("source import = %+v", row.SourceImportID)
	}
	if row.PaymentMethod != "bank" {
		t.Errorf("payment method = %s", row.PaymentMethod)
	}
	if !row.SyncedTS.Equal(now) {
		t.Errorf("synced ts = %s", row.SyncedTS)
	}
}
