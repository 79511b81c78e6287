package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
	"numbers-lottery/internal/pkg/lock"
	"numbers-lottery/internal/repository"
)

// TicketService handles ticket purchase, cancellation, lookup and claim.
type TicketService struct {
	registry  *game.Registry
	guard     *lock.SlotGuard
	tickets   *repository.TicketRepository
	results   *repository.ResultRepository
	settings  *repository.SettingsRepository
	validDays int
}

// NewTicketService creates a new TicketService instance.
func NewTicketService(
	registry *game.Registry,
	guard *lock.SlotGuard,
	tickets *repository.TicketRepository,
	results *repository.ResultRepository,
	settings *repository.SettingsRepository,
	validDays int,
) *TicketService {
	return &TicketService{
		registry:  registry,
		guard:     guard,
		tickets:   tickets,
		results:   results,
		settings:  settings,
		validDays: validDays,
	}
}

// ClaimResult is the outcome of a successful claim.
type ClaimResult struct {
	PayoutAmount int64 `json:"payout_amount"`
	NewBalance   int64 `json:"new_balance"`
}

// Purchase validates the bets, debits the stake and creates the ticket.
// The purchase gate plus the outcome-exists check enforce the hard cutover:
// no ticket is accepted for a slot once its outcome generation has started.
func (s *TicketService) Purchase(ctx context.Context, accountID int64, slot model.DrawSlot, bets []model.Bet) (*model.Ticket, error) {
	variant, ok := s.registry.Get(slot.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, slot.Variant)
	}
	if len(bets) == 0 {
		return nil, ErrNoBets
	}

	settings, err := s.settings.Snapshot(ctx, slot.Variant)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrGameDisabled, slot.Variant)
	}

	var totalQuantity, totalPoints int64
	for _, bet := range bets {
		if err := variant.ValidateBet(bet); err != nil {
			return nil, err
		}
		totalQuantity += bet.Quantity
		totalPoints += bet.Points()
	}

	serial := uuid.New()
	ticket := &model.Ticket{
		SerialID:      serial.String(),
		Barcode:       barcodeFrom(serial),
		AccountID:     accountID,
		Variant:       slot.Variant,
		DrawDate:      slot.DrawDate,
		DrawTime:      slot.DrawTime,
		Bets:          bets,
		TotalQuantity: totalQuantity,
		TotalPoints:   totalPoints,
		Status:        model.TicketActive,
		WinStatus:     model.WinPending,
		ValidUntil:    time.Now().AddDate(0, 0, s.validDays),
	}

	err = s.guard.PurchaseGate(slot.Key(), func() error {
		exists, err := s.results.Exists(ctx, slot)
		if err != nil {
			return err
		}
		if exists {
			return ErrBettingClosed
		}
		return s.tickets.CreateWithDebit(ctx, ticket)
	})
	if err != nil {
		if errors.Is(err, lock.ErrSlotClosed) {
			return nil, ErrBettingClosed
		}
		return nil, err
	}

	log.Info().
		Int64("ticket_id", ticket.ID).
		Int64("account_id", accountID).
		Str("slot", slot.Key()).
		Int64("total_points", totalPoints).
		Msg("Ticket purchased")
	return ticket, nil
}

// Cancel refunds an active ticket. The same cutover applies: once the
// slot's generation has started the ticket rides to settlement.
func (s *TicketService) Cancel(ctx context.Context, ticketID, accountID int64) (refund, newBalance int64, err error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return 0, 0, err
	}

	err = s.guard.PurchaseGate(ticket.Slot().Key(), func() error {
		exists, err := s.results.Exists(ctx, ticket.Slot())
		if err != nil {
			return err
		}
		if exists {
			return ErrBettingClosed
		}
		refund, newBalance, err = s.tickets.Cancel(ctx, ticketID, accountID)
		return err
	})
	if err != nil {
		if errors.Is(err, lock.ErrSlotClosed) {
			return 0, 0, ErrBettingClosed
		}
		return 0, 0, err
	}

	log.Info().
		Int64("ticket_id", ticketID).
		Int64("refund", refund).
		Msg("Ticket cancelled")
	return refund, newBalance, nil
}

// Claim moves a won ticket's payout into the owner's wallet, exactly once.
func (s *TicketService) Claim(ctx context.Context, ticketID int64) (*ClaimResult, error) {
	payout, balance, err := s.tickets.Claim(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("ticket_id", ticketID).
		Int64("payout", payout).
		Msg("Ticket claimed")
	return &ClaimResult{PayoutAmount: payout, NewBalance: balance}, nil
}

// CheckBySerial returns the ticket with the given serial ID. Read-only:
// settlement is the engine's job, checking never mutates state.
func (s *TicketService) CheckBySerial(ctx context.Context, serialID string) (*model.Ticket, error) {
	return s.tickets.GetBySerial(ctx, serialID)
}

// CheckByBarcode returns the ticket with the given barcode.
func (s *TicketService) CheckByBarcode(ctx context.Context, barcode string) (*model.Ticket, error) {
	return s.tickets.GetByBarcode(ctx, barcode)
}

// ListByAccount returns an account's most recent tickets.
func (s *TicketService) ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Ticket, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.tickets.ListByAccount(ctx, accountID, limit)
}

// barcodeFrom derives a 14-digit scannable barcode from the serial UUID.
func barcodeFrom(id uuid.UUID) string {
	var b strings.Builder
	for _, by := range id[:7] {
		fmt.Fprintf(&b, "%02d", int(by)%100)
	}
	return b.String()
}
