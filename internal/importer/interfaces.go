package importer

import (
	"context"
	"time"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// Parser extracts transactions from statement PDF bytes.
type Parser interface {
	ParseStatement(ctx context.Context, pdfBytes []byte) (*ai.ParsedStatement, error)
}

// Suggester proposes a category per transaction description. The returned
// slice is aligned with descriptions.
type Suggester interface {
	SuggestCategories(ctx context.Context, descriptions []string, categories []domain.Category) ([]ai.CategorySuggestion, error)
}

// Store is the persistence surface of the import pipeline.
type Store interface {
	CreateImport(ctx context.Context, si *domain.StatementImport) (*domain.StatementImport, error)
	GetImport(ctx context.Context, userID, id string) (*domain.StatementImport, error)
	GetImportByHash(ctx context.Context, userID, hash string) (*domain.StatementImport, error)
	ListImports(ctx context.Context, userID string, limit int) ([]domain.StatementImport, error)
	SetImportStatus(ctx context.Context, id string, status domain.ImportStatus, errMsg string) error
	MarkImportPasswordRequired(ctx context.Context, id string) error
	MarkImportExtracted(ctx context.Context, id, bankName string, total int, periodStart, periodEnd *time.Time) error
	ReplaceExtracted(ctx context.Context, importID string, txns []domain.ExtractedTransaction) error
	UpdateExtractedBatch(ctx context.Context, txns []domain.ExtractedTransaction) error
	ListExtracted(ctx context.Context, importID string) ([]domain.ExtractedTransaction, error)
	UpdateExtractedSelection(ctx context.Context, importID, txnID string, isSelected *bool, categoryID *string) (*domain.ExtractedTransaction, error)
	CommitImport(ctx context.Context, importID string, expenses []domain.Expense) error
	DeleteImport(ctx context.Context, userID, id string) error
	DeleteExpiredImports(ctx context.Context, now time.Time) ([]string, error)

	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, id string) (*domain.Category, error)
	ListExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error)
}
