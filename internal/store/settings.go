package store

import (
	"context"
	"fmt"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// GetSettings returns the user's financial settings, creating the default
// row on first access.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.FinancialSettings, error) {
	query := `
		INSERT INTO financial_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, needs_pct, wants_pct, savings_pct, min_savings_target,
		          ui_mode, is_premium, created_at, updated_at
	`
	var fs domain.FinancialSettings
	var mode string
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&fs.UserID, &fs.NeedsPct, &fs.WantsPct, &fs.SavingsPct, &fs.MinSavingsTarget,
		&mode, &fs.IsPremium, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("GetSettings: %w", err)
	}
	fs.UIMode = domain.UIMode(mode)
	return &fs, nil
}

// UpdateSettings writes the user's target split and UI preferences. The
// premium flag belongs to the payment system and is never writable through
// this path.
func (s *Store) UpdateSettings(ctx context.Context, fs *domain.FinancialSettings) (*domain.FinancialSettings, error) {
	query := `
		INSERT INTO financial_settings (user_id, needs_pct, wants_pct, savings_pct, min_savings_target, ui_mode)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			needs_pct = EXCLUDED.needs_pct,
			wants_pct = EXCLUDED.wants_pct,
			savings_pct = EXCLUDED.savings_pct,
			min_savings_target = EXCLUDED.min_savings_target,
			ui_mode = EXCLUDED.ui_mode,
			updated_at = now()
		RETURNING is_premium, created_at, updated_at
	`
	out := *fs
	err := s.pool.QueryRow(ctx, query,
		fs.UserID, fs.NeedsPct, fs.WantsPct, fs.SavingsPct, fs.MinSavingsTarget,
		string(fs.UIMode),
	).Scan(&out.IsPremium, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("UpdateSettings: %w", err)
	}
	return &out, nil
}
