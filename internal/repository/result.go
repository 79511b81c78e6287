package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
)

const outcomeColumns = `id, variant, draw_date, draw_time, unit, outcome, session, created_at`

// ResultRepository persists finalized draw outcomes, one row per unit.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository instance.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Exists reports whether the slot already has a persisted outcome.
func (r *ResultRepository) Exists(ctx context.Context, slot model.DrawSlot) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM draw_outcomes
			WHERE variant = $1 AND draw_date = $2 AND draw_time = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, slot.Variant, slot.DrawDate, slot.DrawTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check outcome existence: %w", err)
	}
	return exists, nil
}

// SaveAll persists one row per unit of the slot's outcome in a single
// transaction. The unique index on (variant, draw_date, draw_time, unit)
// rejects a double write for the same slot.
func (r *ResultRepository) SaveAll(ctx context.Context, slot model.DrawSlot, outcome engine.Outcome) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO draw_outcomes (variant, draw_date, draw_time, unit, outcome, session, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	for unit, drawn := range outcome {
		if _, err := tx.Exec(ctx, query, slot.Variant, slot.DrawDate, slot.DrawTime, unit, drawn, slot.Session); err != nil {
			return fmt.Errorf("failed to insert outcome for unit %q: %w", unit, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit outcomes: %w", err)
	}
	return nil
}

// GetBySlot returns the outcome rows of one slot.
func (r *ResultRepository) GetBySlot(ctx context.Context, slot model.DrawSlot) ([]model.DrawOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM draw_outcomes
		WHERE variant = $1 AND draw_date = $2 AND draw_time = $3
		ORDER BY unit
	`
	return r.list(ctx, query, slot.Variant, slot.DrawDate, slot.DrawTime)
}

// ListByDate returns all of a variant's outcomes for one calendar day.
func (r *ResultRepository) ListByDate(ctx context.Context, variant model.GameVariant, date time.Time) ([]model.DrawOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM draw_outcomes
		WHERE variant = $1 AND draw_date = $2
		ORDER BY session, unit
	`
	return r.list(ctx, query, variant, date)
}

// ListLatest returns a variant's most recent outcome rows.
func (r *ResultRepository) ListLatest(ctx context.Context, variant model.GameVariant, limit int) ([]model.DrawOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM draw_outcomes
		WHERE variant = $1
		ORDER BY id DESC
		LIMIT $2
	`
	return r.list(ctx, query, variant, limit)
}

func (r *ResultRepository) list(ctx context.Context, query string, args ...any) ([]model.DrawOutcome, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.DrawOutcome
	for rows.Next() {
		var o model.DrawOutcome
		err := rows.Scan(&o.ID, &o.Variant, &o.DrawDate, &o.DrawTime, &o.Unit, &o.Outcome, &o.Session, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}
	return outcomes, nil
}
