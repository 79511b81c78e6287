package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

// Summary is the aggregate result of settling one draw slot.
type Summary struct {
	TicketsChecked int `json:"tickets_checked"`
	Won            int `json:"won"`
	Lost           int `json:"lost"`
	AlreadySettled int `json:"already_settled"`
	Failed         int `json:"failed"`
}

// SettleSlot drives the win evaluator over every open ticket of a slot and
// persists won/lost with the payout amount. Idempotent: tickets settled by
// an earlier or concurrent run are skipped via the store's compare-and-set,
// and a full re-run over an already-settled slot yields zero transitions.
// A per-ticket failure is logged and counted, never aborts the batch, and
// never touches any wallet; payout reaches a balance only through claim.
func SettleSlot(ctx context.Context, variant game.Variant, tickets TicketStore, slot model.DrawSlot, outcome Outcome) (Summary, error) {
	var sum Summary

	open, err := tickets.ListOpen(ctx, slot)
	if err != nil {
		return sum, err
	}

	for _, t := range open {
		sum.TicketsChecked++

		payout := TicketPayout(variant, t, outcome)
		won := payout > 0

		applied, err := tickets.Settle(ctx, t.ID, won, payout)
		if err != nil {
			sum.Failed++
			log.Error().Err(err).
				Int64("ticket_id", t.ID).
				Str("slot", slot.Key()).
				Msg("Failed to settle ticket")
			continue
		}
		if !applied {
			sum.AlreadySettled++
			continue
		}
		if won {
			sum.Won++
		} else {
			sum.Lost++
		}
	}
	return sum, nil
}

// TicketPayout evaluates every bet of a ticket against the slot outcome and
// returns the total payout. Pure.
func TicketPayout(variant game.Variant, t model.Ticket, outcome Outcome) int64 {
	var total int64
	for _, bet := range t.Bets {
		for unit, drawn := range outcome {
			total += variant.Evaluate(bet, unit, drawn)
		}
	}
	return total
}
