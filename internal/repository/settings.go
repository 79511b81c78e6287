package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"numbers-lottery/internal/model"
)

// SettingsRepository handles the per-variant operator settings.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository instance.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Snapshot returns the variant's settings, falling back to the variant
// default payout percent with the game enabled when no row exists. The
// engine calls this once per draw cycle.
func (r *SettingsRepository) Snapshot(ctx context.Context, variant model.GameVariant) (model.GameSettings, error) {
	const query = `
		SELECT variant, target_payout_percent, enabled, updated_at
		FROM game_settings
		WHERE variant = $1
	`

	var s model.GameSettings
	err := r.pool.QueryRow(ctx, query, variant).Scan(
		&s.Variant, &s.TargetPayoutPercent, &s.Enabled, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.GameSettings{
				Variant:             variant,
				TargetPayoutPercent: model.DefaultPayoutPercent(variant),
				Enabled:             true,
			}, nil
		}
		return model.GameSettings{}, fmt.Errorf("failed to read game settings: %w", err)
	}
	return s, nil
}

// Upsert stores the variant's settings.
func (r *SettingsRepository) Upsert(ctx context.Context, variant model.GameVariant, targetPayoutPercent int, enabled bool) (model.GameSettings, error) {
	if targetPayoutPercent < 0 || targetPayoutPercent > 100 {
		return model.GameSettings{}, fmt.Errorf("target payout percent must be 0-100")
	}

	const query = `
		INSERT INTO game_settings (variant, target_payout_percent, enabled, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (variant) DO UPDATE
		SET target_payout_percent = EXCLUDED.target_payout_percent,
		    enabled = EXCLUDED.enabled,
		    updated_at = NOW()
		RETURNING variant, target_payout_percent, enabled, updated_at
	`

	var s model.GameSettings
	err := r.pool.QueryRow(ctx, query, variant, targetPayoutPercent, enabled).Scan(
		&s.Variant, &s.TargetPayoutPercent, &s.Enabled, &s.UpdatedAt,
	)
	if err != nil {
		return model.GameSettings{}, fmt.Errorf("failed to upsert game settings: %w", err)
	}
	return s, nil
}

// List returns the settings of every variant, using defaults for variants
// without a stored row.
func (r *SettingsRepository) List(ctx context.Context) ([]model.GameSettings, error) {
	out := make([]model.GameSettings, 0, len(model.AllVariants()))
	for _, v := range model.AllVariants() {
		s, err := r.Snapshot(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
