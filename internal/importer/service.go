// Package importer runs the statement import pipeline: upload, parse,
// categorize, review and commit. Parsing and categorization are asynchronous
// queue jobs; everything else is synchronous.
package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rupeelog/rupeelog/internal/blob"
	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/jobs"
	"github.com/rupeelog/rupeelog/internal/logger"
)

const (
	// DefaultMaxUploadBytes caps statement uploads at 10 MiB.
	DefaultMaxUploadBytes = 10 << 20

	// DefaultRetentionTTL is how long an import and its staged rows live.
	// Expiry applies regardless of status.
	DefaultRetentionTTL = 24 * time.Hour
)

// Config tunes upload limits and retention.
type Config struct {
	MaxUploadBytes int64
	RetentionTTL   time.Duration
}

// Service coordinates the import pipeline.
type Service struct {
	store   Store
	blob    blob.Storage
	parser  Parser
	suggest Suggester
	queue   jobs.Publisher
	cfg     Config
}

func NewService(store Store, storage blob.Storage, parser Parser, suggester Suggester, queue jobs.Publisher, cfg Config) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RetentionTTL <= 0 {
		cfg.RetentionTTL = DefaultRetentionTTL
	}
	return &Service{
		store:   store,
		blob:    storage,
		parser:  parser,
		suggest: suggester,
		queue:   queue,
		cfg:     cfg,
	}
}

// UploadResult carries the created import plus a pointer at an earlier
// upload of the same file, if one exists. The duplicate is a warning, not a
// rejection; re-importing a statement is allowed.
type UploadResult struct {
	Import        *domain.StatementImport `json:"import"`
	DuplicateOfID string                  `json:"duplicate_of_id,omitempty"`
}

// Upload validates the file, stores it and creates a pending import. The
// content is checked before anything touches blob storage: wrong magic bytes
// or an oversized body never leave the request handler.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Upload: read: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("Upload: file larger than %d bytes: %w", s.cfg.MaxUploadBytes, domain.ErrInvalidInput)
	}
	if !IsPDF(data) {
		return nil, fmt.Errorf("Upload: not a PDF: %w", domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	var dupID string
	prev, err := s.store.GetImportByHash(ctx, userID, hash)
	switch {
	case err == nil:
		dupID = prev.ID
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("Upload: hash lookup: %w", err)
	}

	id := uuid.NewString()
	object := fmt.Sprintf("statements/%s/%s.pdf", userID, id)
	uri, err := s.blob.Upload(ctx, object, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Upload: store object: %w", err)
	}

	name := filepath.Base(fileName)
	if name == "." || name == "/" || name == "" {
		name = "statement.pdf"
	}

	si, err := s.store.CreateImport(ctx, &domain.StatementImport{
		ID:        id,
		UserID:    userID,
		FileName:  name,
		FileURI:   uri,
		FileHash:  hash,
		Status:    domain.StatusPending,
		ExpiresAt: time.Now().Add(s.cfg.RetentionTTL),
	})
	if err != nil {
		_ = s.blob.Remove(ctx, uri)
		return nil, fmt.Errorf("Upload: %w", err)
	}

	return &UploadResult{Import: si, DuplicateOfID: dupID}, nil
}

// Parse enqueues extraction for an import in pending or failed state. The
// password, when given, rides along in process memory only.
func (s *Service) Parse(ctx context.Context, userID, importID, password string) (*jobs.ImportJob, error) {
	si, err := s.get(ctx, userID, importID)
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	if !si.Status.CanStartParse() {
		return nil, fmt.Errorf("Parse: import is %s: %w", si.Status, domain.ErrConflict)
	}

	job := &jobs.ImportJob{
		Kind:     jobs.KindParseStatement,
		ImportID: importID,
		UserID:   userID,
		Password: password,
	}
	if err := s.queue.Publish(ctx, job); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return job, nil
}

// Categorize enqueues suggestion and duplicate detection for an extracted or
// failed import.
func (s *Service) Categorize(ctx context.Context, userID, importID string) (*jobs.ImportJob, error) {
	si, err := s.get(ctx, userID, importID)
	if err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}
	if !si.Status.CanStartCategorize() {
		return nil, fmt.Errorf("Categorize: import is %s: %w", si.Status, domain.ErrConflict)
	}

	job := &jobs.ImportJob{
		Kind:     jobs.KindCategorize,
		ImportID: importID,
		UserID:   userID,
	}
	if err := s.queue.Publish(ctx, job); err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}
	return job, nil
}

// Commit writes the reviewed rows into the expense ledger and completes the
// import. Only selected debit rows are written; rows flagged as duplicates
// are skipped unless their id appears in includeDuplicates, which is the
// client's explicit override.
func (s *Service) Commit(ctx context.Context, userID, importID string, includeDuplicates []string) (*domain.StatementImport, error) {
	si, err := s.get(ctx, userID, importID)
	if err != nil {
		return nil, fmt.Errorf("Commit: %w", err)
	}
	if !si.Status.CanCommit() {
		return nil, fmt.Errorf("Commit: import is %s, want ready: %w", si.Status, domain.ErrConflict)
	}

	txns, err := s.store.ListExtracted(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("Commit: %w", err)
	}

	include := make(map[string]bool, len(includeDuplicates))
	for _, id := range includeDuplicates {
		include[id] = true
	}

	var expenses []domain.Expense
	for _, t := range txns {
		if !t.IsSelected || t.Type != domain.TxnDebit {
			continue
		}
		if t.IsDuplicate && !include[t.ID] {
			continue
		}
		expenses = append(expenses, domain.Expense{
			ID:             uuid.NewString(),
			UserID:         userID,
			Amount:         t.Amount,
			Note:           t.Description,
			CategoryID:     t.SuggestedCategoryID,
			PaymentMethod:  domain.PaymentBank,
			ExpenseDate:    t.Date,
			SourceImportID: importID,
		})
	}

	if err := s.store.CommitImport(ctx, importID, expenses); err != nil {
		return nil, fmt.Errorf("Commit: %w", err)
	}
	return s.store.GetImport(ctx, userID, importID)
}

// Cancel deletes a non-terminal import along with its object and staged
// rows.
func (s *Service) Cancel(ctx context.Context, userID, importID string) error {
	si, err := s.store.GetImport(ctx, userID, importID)
	if err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	if !si.Status.CanCancel() {
		return fmt.Errorf("Cancel: import is %s: %w", si.Status, domain.ErrConflict)
	}

	if si.FileURI != "" {
		if err := s.blob.Remove(ctx, si.FileURI); err != nil {
			return fmt.Errorf("Cancel: remove object: %w", err)
		}
	}
	if err := s.store.DeleteImport(ctx, userID, importID); err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	return nil
}

// Get returns one import. Expired imports read as gone even before the
// cleaner removes them.
func (s *Service) Get(ctx context.Context, userID, importID string) (*domain.StatementImport, error) {
	return s.get(ctx, userID, importID)
}

// List returns the user's unexpired imports, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.StatementImport, error) {
	imports, err := s.store.ListImports(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	now := time.Now()
	out := imports[:0]
	for _, si := range imports {
		if si.Expired(now) {
			continue
		}
		out = append(out, si)
	}
	return out, nil
}

// Transactions returns the staged rows for review.
func (s *Service) Transactions(ctx context.Context, userID, importID string) ([]domain.ExtractedTransaction, error) {
	if _, err := s.get(ctx, userID, importID); err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	txns, err := s.store.ListExtracted(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	return txns, nil
}

// UpdateTransaction adjusts a staged row before commit: toggle selection or
// override the suggested category. Nil fields are left unchanged; an empty
// category ID clears the suggestion.
func (s *Service) UpdateTransaction(ctx context.Context, userID, importID, txnID string, isSelected *bool, categoryID *string) (*domain.ExtractedTransaction, error) {
	si, err := s.get(ctx, userID, importID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	if si.Status.Terminal() {
		return nil, fmt.Errorf("UpdateTransaction: import is %s: %w", si.Status, domain.ErrConflict)
	}

	if categoryID != nil && *categoryID != "" {
		if _, err := s.store.GetCategory(ctx, userID, *categoryID); err != nil {
			return nil, fmt.Errorf("UpdateTransaction: category %s: %w", *categoryID, err)
		}
	}

	txn, err := s.store.UpdateExtractedSelection(ctx, importID, txnID, isSelected, categoryID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return txn, nil
}

// CleanupExpired removes imports past their retention deadline, regardless
// of status, and their stored objects. It returns how many were removed.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	uris, err := s.store.DeleteExpiredImports(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("CleanupExpired: %w", err)
	}

	log := logger.FromContext(ctx)
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		if err := s.blob.Remove(ctx, uri); err != nil {
			// The row is already gone; an unreachable object is not worth
			// failing the sweep over.
			log.Warn().Err(err).Str("uri", uri).Msg("could not remove expired statement object")
		}
	}
	return len(uris), nil
}

func (s *Service) get(ctx context.Context, userID, importID string) (*domain.StatementImport, error) {
	si, err := s.store.GetImport(ctx, userID, importID)
	if err != nil {
		return nil, err
	}
	if si.Expired(time.Now()) {
		return nil, fmt.Errorf("import %s expired: %w", importID, domain.ErrNotFound)
	}
	return si, nil
}
