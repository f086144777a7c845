package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/jobs"
	"github.com/rupeelog/rupeelog/internal/logger"
)

// HandleJob routes a queue job to its pipeline stage. It is the jobs.Handler
// given to the consumer.
func (s *Service) HandleJob(ctx context.Context, job *jobs.ImportJob) error {
	switch job.Kind {
	case jobs.KindParseStatement:
		return s.handleParse(ctx, job)
	case jobs.KindCategorize:
		return s.handleCategorize(ctx, job)
	default:
		return fmt.Errorf("HandleJob: unknown kind %q", job.Kind)
	}
}

// handleParse extracts transactions from the stored PDF. A missing or wrong
// password is not a failure: the import drops back to pending with
// password_required set and the job completes.
func (s *Service) handleParse(ctx context.Context, job *jobs.ImportJob) error {
	log := logger.FromContext(ctx).With().Str("import_id", job.ImportID).Logger()

	si, err := s.store.GetImport(ctx, job.UserID, job.ImportID)
	if err != nil {
		return fmt.Errorf("handleParse: %w", err)
	}
	if err := s.store.SetImportStatus(ctx, si.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("handleParse: %w", err)
	}

	err = s.parse(ctx, si, job.Password)
	if errors.Is(err, errBadPassword) {
		log.Info().Msg("statement is password-protected, waiting for the client")
		if err := s.store.MarkImportPasswordRequired(ctx, si.ID); err != nil {
			return fmt.Errorf("handleParse: %w", err)
		}
		return nil
	}
	if err != nil {
		if serr := s.store.SetImportStatus(ctx, si.ID, domain.StatusFailed, err.Error()); serr != nil {
			log.Error().Err(serr).Msg("could not record parse failure")
		}
		return fmt.Errorf("handleParse: %w", err)
	}

	log.Info().Msg("statement parsed")
	return nil
}

func (s *Service) parse(ctx context.Context, si *domain.StatementImport, password string) error {
	data, err := s.blob.Fetch(ctx, si.FileURI)
	if err != nil {
		return fmt.Errorf("fetch statement: %w", err)
	}

	if IsEncrypted(data) {
		if password == "" {
			return errBadPassword
		}
		data, err = DecryptPDF(ctx, data, password)
		if err != nil {
			return err
		}
	}

	parsed, err := s.parser.ParseStatement(ctx, data)
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}

	txns := make([]domain.ExtractedTransaction, 0, len(parsed.Transactions))
	for _, pt := range parsed.Transactions {
		txns = append(txns, domain.ExtractedTransaction{
			ID:          uuid.NewString(),
			ImportID:    si.ID,
			Date:        pt.Date,
			Description: pt.Description,
			Amount:      pt.Amount,
			Type:        domain.TxnType(pt.Type),
			Balance:     decimal.NullDecimal{Decimal: pt.Balance, Valid: pt.HasBalance},
			RawText:     pt.RawText,
			IsSelected:  true,
		})
	}

	if err := s.store.ReplaceExtracted(ctx, si.ID, txns); err != nil {
		return fmt.Errorf("stage transactions: %w", err)
	}
	if err := s.store.MarkImportExtracted(ctx, si.ID, parsed.BankName, len(txns), parsed.PeriodStart, parsed.PeriodEnd); err != nil {
		return fmt.Errorf("mark extracted: %w", err)
	}
	return nil
}

// handleCategorize tags staged rows with suggested categories and flags
// rows already present in the ledger.
func (s *Service) handleCategorize(ctx context.Context, job *jobs.ImportJob) error {
	log := logger.FromContext(ctx).With().Str("import_id", job.ImportID).Logger()

	si, err := s.store.GetImport(ctx, job.UserID, job.ImportID)
	if err != nil {
		return fmt.Errorf("handleCategorize: %w", err)
	}
	if err := s.store.SetImportStatus(ctx, si.ID, domain.StatusCategorizing, ""); err != nil {
		return fmt.Errorf("handleCategorize: %w", err)
	}

	if err := s.categorize(ctx, si); err != nil {
		if serr := s.store.SetImportStatus(ctx, si.ID, domain.StatusFailed, err.Error()); serr != nil {
			log.Error().Err(serr).Msg("could not record categorize failure")
		}
		return fmt.Errorf("handleCategorize: %w", err)
	}

	if err := s.store.SetImportStatus(ctx, si.ID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("handleCategorize: %w", err)
	}
	log.Info().Msg("statement categorized")
	return nil
}

func (s *Service) categorize(ctx context.Context, si *domain.StatementImport) error {
	txns, err := s.store.ListExtracted(ctx, si.ID)
	if err != nil {
		return fmt.Errorf("list staged rows: %w", err)
	}
	if len(txns) == 0 {
		return nil
	}

	categories, err := s.store.ListCategories(ctx, si.UserID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	descriptions := make([]string, len(txns))
	for i, t := range txns {
		descriptions[i] = t.Description
	}
	suggestions, err := s.suggest.SuggestCategories(ctx, descriptions, categories)
	if err != nil {
		return fmt.Errorf("suggest categories: %w", err)
	}
	for i := range txns {
		if i >= len(suggestions) {
			break
		}
		txns[i].SuggestedCategoryID = suggestions[i].CategoryID
		txns[i].AIConfidence = suggestions[i].Confidence
	}

	from, to := dedupeWindow(txns)
	existing, err := s.store.ListExpensesBetween(ctx, si.UserID, from, to)
	if err != nil {
		return fmt.Errorf("list ledger window: %w", err)
	}
	markDuplicates(txns, existing)

	if err := s.store.UpdateExtractedBatch(ctx, txns); err != nil {
		return fmt.Errorf("store categorize results: %w", err)
	}
	return nil
}

// dedupeWindow spans from the earliest staged row to the latest, padded by
// the fuzzy-match window on both sides. The upper bound is exclusive.
func dedupeWindow(txns []domain.ExtractedTransaction) (time.Time, time.Time) {
	min, max := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(min) {
			min = t.Date
		}
		if t.Date.After(max) {
			max = t.Date
		}
	}
	return min.AddDate(0, 0, -fuzzyDateWindowDays), max.AddDate(0, 0, fuzzyDateWindowDays+1)
}
