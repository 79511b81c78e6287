package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
	"numbers-lottery/internal/pkg/lock"
)

// Engine runs the per-slot draw pipeline: aggregate exposure, choose an
// outcome under the payout budget, persist it, settle tickets, publish.
type Engine struct {
	registry  *game.Registry
	guard     *lock.SlotGuard
	selector  *Selector
	tickets   TicketStore
	results   ResultStore
	settings  SettingsSource
	overrides OverrideSource
	pubs      []Publisher
}

// New creates a draw engine.
func New(registry *game.Registry, guard *lock.SlotGuard, selector *Selector,
	tickets TicketStore, results ResultStore, settings SettingsSource,
	overrides OverrideSource, pubs ...Publisher) *Engine {
	return &Engine{
		registry:  registry,
		guard:     guard,
		selector:  selector,
		tickets:   tickets,
		results:   results,
		settings:  settings,
		overrides: overrides,
		pubs:      pubs,
	}
}

// CycleResult is the outcome of one completed draw cycle.
type CycleResult struct {
	Slot    model.DrawSlot
	Outcome Outcome
	Summary Summary
}

// RunDrawCycle executes the full pipeline for one slot. Concurrent runs for
// the same slot are rejected with lock.ErrCycleInProgress; a slot that
// already has a persisted outcome returns ErrAlreadyDrawn, making
// re-triggers harmless. The purchase path checks the same guard and the
// same outcome-exists condition, so no ticket can slip in once generation
// has started.
func (e *Engine) RunDrawCycle(ctx context.Context, slot model.DrawSlot) (*CycleResult, error) {
	variant, ok := e.registry.Get(slot.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, slot.Variant)
	}

	if err := e.guard.TryBegin(slot.Key()); err != nil {
		return nil, err
	}
	defer e.guard.End(slot.Key())

	exists, err := e.results.Exists(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing outcome: %w", err)
	}
	if exists {
		return nil, ErrAlreadyDrawn
	}

	// Settings snapshot: one read per cycle, so a concurrent operator edit
	// cannot change payout math mid-draw.
	settings, err := e.settings.Snapshot(ctx, slot.Variant)
	if err != nil {
		return nil, fmt.Errorf("failed to read game settings: %w", err)
	}
	if !settings.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrGameDisabled, slot.Variant)
	}

	open, err := e.tickets.ListOpen(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	exposure := AggregateExposure(variant, open)

	outcome, err := e.chooseOutcome(ctx, variant, slot, exposure, settings.Ratio())
	if err != nil {
		return nil, err
	}

	if err := e.results.SaveAll(ctx, slot, outcome); err != nil {
		return nil, fmt.Errorf("failed to persist outcome: %w", err)
	}

	summary, err := SettleSlot(ctx, variant, e.tickets, slot, outcome)
	if err != nil {
		// The outcome is already final; settlement can be retried by
		// re-invoking it, guarded by the per-ticket compare-and-set.
		log.Error().Err(err).Str("slot", slot.Key()).Msg("Settlement failed, outcome already persisted")
	}

	log.Info().
		Str("slot", slot.Key()).
		Interface("outcome", outcome).
		Int("tickets", summary.TicketsChecked).
		Int("won", summary.Won).
		Int("lost", summary.Lost).
		Int("failed", summary.Failed).
		Msg("Draw cycle complete")

	res := &CycleResult{Slot: slot, Outcome: outcome, Summary: summary}
	for _, p := range e.pubs {
		p.PublishOutcome(ctx, slot, outcome, summary)
	}
	return res, nil
}

// chooseOutcome applies the manual override when one is present and covers
// every unit, otherwise runs smart selection per unit against its share of
// the payout budget.
func (e *Engine) chooseOutcome(ctx context.Context, variant game.Variant, slot model.DrawSlot, exposure *ExposureMap, ratio float64) (Outcome, error) {
	if e.overrides != nil {
		manual, found, err := e.overrides.Consume(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("failed to read manual outcome: %w", err)
		}
		if found {
			if err := validateOverride(variant, manual); err != nil {
				// A partial or malformed override is discarded whole; the
				// smart selection below keeps the documented budget split.
				log.Warn().Err(err).Str("slot", slot.Key()).Msg("Rejecting manual outcome")
			} else {
				log.Info().Str("slot", slot.Key()).Interface("outcome", manual).Msg("Using manual outcome")
				return manual, nil
			}
		}
	}

	outcome := make(Outcome, len(variant.Units()))
	for _, unit := range variant.Units() {
		budget := float64(exposure.TotalPoints) * ratio * variant.UnitBudgetShare()
		outcome[unit] = e.selector.Select(
			variant.Candidates(unit),
			exposure.Units[unit],
			exposure.TotalPoints,
			budget,
			variant.MinCandidates(),
		)
	}
	return outcome, nil
}

// validateOverride checks that a manual outcome covers every unit with a
// candidate from that unit's space.
func validateOverride(variant game.Variant, manual Outcome) error {
	for _, unit := range variant.Units() {
		chosen, ok := manual[unit]
		if !ok || chosen == "" {
			return fmt.Errorf("missing outcome for unit %q", unit)
		}
		found := false
		for _, c := range variant.Candidates(unit) {
			if c == chosen {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("outcome %q is not a candidate of unit %q", chosen, unit)
		}
	}
	return nil
}
