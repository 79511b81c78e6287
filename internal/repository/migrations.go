package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations is the full schema, applied in order at startup. Statements
// are idempotent so restarting is always safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		delta BIGINT NOT NULL,
		reason VARCHAR(50) NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account
		ON ledger_entries (account_id, id)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGSERIAL PRIMARY KEY,
		serial_id VARCHAR(64) NOT NULL UNIQUE,
		barcode VARCHAR(64) NOT NULL UNIQUE,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		variant VARCHAR(8) NOT NULL,
		draw_date DATE NOT NULL,
		draw_time VARCHAR(16) NOT NULL,
		bets JSONB NOT NULL,
		total_quantity BIGINT NOT NULL,
		total_points BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		win_status VARCHAR(16) NOT NULL,
		win_amount BIGINT NOT NULL DEFAULT 0,
		claimed BOOLEAN NOT NULL DEFAULT FALSE,
		claimed_at TIMESTAMPTZ,
		valid_until TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tickets_slot
		ON tickets (variant, draw_date, draw_time, status, win_status)`,

	`CREATE INDEX IF NOT EXISTS idx_tickets_account
		ON tickets (account_id, id)`,

	`CREATE TABLE IF NOT EXISTS draw_outcomes (
		id BIGSERIAL PRIMARY KEY,
		variant VARCHAR(8) NOT NULL,
		draw_date DATE NOT NULL,
		draw_time VARCHAR(16) NOT NULL,
		unit VARCHAR(16) NOT NULL,
		outcome VARCHAR(32) NOT NULL,
		session INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_draw_outcomes_slot_unit
		ON draw_outcomes (variant, draw_date, draw_time, unit)`,

	`CREATE TABLE IF NOT EXISTS game_settings (
		variant VARCHAR(8) PRIMARY KEY,
		target_payout_percent INT NOT NULL CHECK (target_payout_percent BETWEEN 0 AND 100),
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS manual_outcomes (
		id BIGSERIAL PRIMARY KEY,
		variant VARCHAR(8) NOT NULL,
		draw_date DATE NOT NULL,
		draw_time VARCHAR(16) NOT NULL,
		outcomes JSONB NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at TIMESTAMPTZ,
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_manual_outcomes_slot_unused
		ON manual_outcomes (variant, draw_date, draw_time) WHERE NOT used`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
