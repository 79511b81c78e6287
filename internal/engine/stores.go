package engine

import (
	"context"

	"numbers-lottery/internal/model"
)

// Outcome is one finalized draw result: unit label to drawn candidate.
// Single-outcome games use the "" unit.
type Outcome map[string]string

// TicketStore is the engine's view of ticket persistence.
type TicketStore interface {
	// ListOpen returns the slot's active tickets still pending settlement.
	ListOpen(ctx context.Context, slot model.DrawSlot) ([]model.Ticket, error)

	// Settle moves a ticket out of pending with a compare-and-set on its
	// settlement status. Returns false when the ticket was already settled
	// by a concurrent run.
	Settle(ctx context.Context, ticketID int64, won bool, winAmount int64) (bool, error)
}

// ResultStore persists finalized outcomes.
type ResultStore interface {
	// Exists reports whether the slot already has a persisted outcome.
	Exists(ctx context.Context, slot model.DrawSlot) (bool, error)

	// SaveAll persists one row per unit of the slot's outcome.
	SaveAll(ctx context.Context, slot model.DrawSlot, outcome Outcome) error
}

// SettingsSource provides the per-variant operator settings. The engine
// reads one snapshot per cycle so mid-cycle edits never change in-flight
// payout math.
type SettingsSource interface {
	Snapshot(ctx context.Context, variant model.GameVariant) (model.GameSettings, error)
}

// OverrideSource provides operator-supplied outcomes. Consume marks the
// override used so it is never reapplied.
type OverrideSource interface {
	Consume(ctx context.Context, slot model.DrawSlot) (Outcome, bool, error)
}

// Publisher receives finalized outcomes for downstream display. Fire and
// forget: publish failures never affect the draw cycle.
type Publisher interface {
	PublishOutcome(ctx context.Context, slot model.DrawSlot, outcome Outcome, summary Summary)
}
