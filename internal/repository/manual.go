package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
)

// ManualOutcomeRepository stores operator-supplied outcomes. An override is
// consumed at most once; a consumed row is never handed out again.
type ManualOutcomeRepository struct {
	pool *pgxpool.Pool
}

// NewManualOutcomeRepository creates a new ManualOutcomeRepository instance.
func NewManualOutcomeRepository(pool *pgxpool.Pool) *ManualOutcomeRepository {
	return &ManualOutcomeRepository{pool: pool}
}

// Upsert stores an override for a slot, replacing any unused one.
func (r *ManualOutcomeRepository) Upsert(ctx context.Context, slot model.DrawSlot, outcomes map[string]string, createdBy string) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("outcomes must not be empty")
	}
	encoded, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}

	const query = `
		INSERT INTO manual_outcomes (variant, draw_date, draw_time, outcomes, used, created_by, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, NOW())
		ON CONFLICT (variant, draw_date, draw_time) WHERE NOT used DO UPDATE
		SET outcomes = EXCLUDED.outcomes,
		    created_by = EXCLUDED.created_by,
		    created_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, slot.Variant, slot.DrawDate, slot.DrawTime, encoded, createdBy); err != nil {
		return fmt.Errorf("failed to upsert manual outcome: %w", err)
	}
	return nil
}

// Consume returns the slot's unused override, if any, and marks it used in
// the same statement so concurrent cycles cannot both apply it.
func (r *ManualOutcomeRepository) Consume(ctx context.Context, slot model.DrawSlot) (engine.Outcome, bool, error) {
	const query = `
		UPDATE manual_outcomes
		SET used = TRUE, used_at = NOW()
		WHERE variant = $1 AND draw_date = $2 AND draw_time = $3 AND NOT used
		RETURNING outcomes
	`

	var encoded []byte
	err := r.pool.QueryRow(ctx, query, slot.Variant, slot.DrawDate, slot.DrawTime).Scan(&encoded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to consume manual outcome: %w", err)
	}

	var outcome engine.Outcome
	if err := json.Unmarshal(encoded, &outcome); err != nil {
		return nil, false, fmt.Errorf("failed to decode manual outcome: %w", err)
	}
	return outcome, true, nil
}
