// Package model defines the data models for the numbers lottery service.
package model

import (
	"fmt"
	"time"
)

// GameVariant identifies one of the four lottery games.
type GameVariant string

const (
	VariantTwoDigit     GameVariant = "2D"
	VariantThreeDigit   GameVariant = "3D"
	VariantTwelveSymbol GameVariant = "12D"
	VariantHundredBlock GameVariant = "100D"
)

// AllVariants lists every supported game variant.
func AllVariants() []GameVariant {
	return []GameVariant{VariantTwoDigit, VariantThreeDigit, VariantTwelveSymbol, VariantHundredBlock}
}

// PlayType is the matching rule of a three-digit bet.
type PlayType string

const (
	PlayStraight  PlayType = "straight"
	PlayBox3Way   PlayType = "box-3-way"
	PlayBox6Way   PlayType = "box-6-way"
	PlayFrontPair PlayType = "front-pair"
	PlayBackPair  PlayType = "back-pair"
	PlaySplitPair PlayType = "split-pair"
	PlayAnyPair   PlayType = "any-pair"
)

// DrawSlot identifies one scheduled draw: variant, calendar day, time label
// and session index. Immutable once created.
type DrawSlot struct {
	Variant  GameVariant
	DrawDate time.Time // midnight in the draw timezone
	DrawTime string    // slot label, e.g. "09:15:00 AM"
	Session  int
}

// Key returns a stable string identity for per-slot locking.
func (s DrawSlot) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.Variant, s.DrawDate.Format("2006-01-02"), s.DrawTime)
}

// Bet is an indivisible stake unit inside a ticket. PlayType and TargetUnit
// are set only for the three-digit variant.
type Bet struct {
	Candidate     string   `json:"candidate"`
	Quantity      int64    `json:"quantity"`
	PointsPerUnit int64    `json:"points_per_unit"`
	PlayType      PlayType `json:"play_type,omitempty"`
	TargetUnit    string   `json:"target_unit,omitempty"`
}

// Points returns the stake this bet contributes to the ticket total.
func (b Bet) Points() int64 {
	return b.Quantity * b.PointsPerUnit
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketCancelled TicketStatus = "cancelled"
	TicketWon       TicketStatus = "won"
	TicketLost      TicketStatus = "lost"
)

// WinStatus is the settlement state of a ticket. A ticket leaves pending
// exactly once per draw slot.
type WinStatus string

const (
	WinPending WinStatus = "pending"
	WinWon     WinStatus = "won"
	WinLost    WinStatus = "lost"
)

// Ticket is a purchased set of bets against one draw slot.
type Ticket struct {
	ID            int64        `db:"id"`
	SerialID      string       `db:"serial_id"`
	Barcode       string       `db:"barcode"`
	AccountID     int64        `db:"account_id"`
	Variant       GameVariant  `db:"variant"`
	DrawDate      time.Time    `db:"draw_date"`
	DrawTime      string       `db:"draw_time"`
	Bets          []Bet        `db:"bets"`
	TotalQuantity int64        `db:"total_quantity"`
	TotalPoints   int64        `db:"total_points"`
	Status        TicketStatus `db:"status"`
	WinStatus     WinStatus    `db:"win_status"`
	WinAmount     int64        `db:"win_amount"`
	Claimed       bool         `db:"claimed"`
	ClaimedAt     *time.Time   `db:"claimed_at"`
	ValidUntil    time.Time    `db:"valid_until"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// Slot returns the draw slot this ticket belongs to. Session is not stored
// on the ticket; it is derived from the draw time when needed.
func (t *Ticket) Slot() DrawSlot {
	return DrawSlot{Variant: t.Variant, DrawDate: t.DrawDate, DrawTime: t.DrawTime}
}

// DrawOutcome is one finalized result row: one per variant sub-unit of a
// draw slot ("" for single-unit variants, "A"/"B"/"C" for three-digit,
// the block label for hundred-block).
type DrawOutcome struct {
	ID        int64       `db:"id"`
	Variant   GameVariant `db:"variant"`
	DrawDate  time.Time   `db:"draw_date"`
	DrawTime  string      `db:"draw_time"`
	Unit      string      `db:"unit"`
	Outcome   string      `db:"outcome"`
	Session   int         `db:"session"`
	CreatedAt time.Time   `db:"created_at"`
}

// GameSettings is the per-variant operator configuration. The engine reads
// a snapshot at aggregation time; mid-cycle edits never affect an in-flight
// draw.
type GameSettings struct {
	Variant             GameVariant `db:"variant"`
	TargetPayoutPercent int         `db:"target_payout_percent"`
	Enabled             bool        `db:"enabled"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

// Ratio returns the target payout ratio as a fraction in [0,1].
func (g GameSettings) Ratio() float64 {
	return float64(g.TargetPayoutPercent) / 100
}

// DefaultPayoutPercent returns the default target payout percentage for a
// variant when no settings row exists.
func DefaultPayoutPercent(v GameVariant) int {
	switch v {
	case VariantThreeDigit:
		return 60
	case VariantTwelveSymbol:
		return 75
	default:
		return 70
	}
}

// Account is a point-balance wallet. Balance never goes negative.
type Account struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LedgerEntry is one append-only balance mutation record. The sum of all
// deltas for an account always equals its balance.
type LedgerEntry struct {
	ID            int64     `db:"id"`
	AccountID     int64     `db:"account_id"`
	Delta         int64     `db:"delta"`
	Reason        string    `db:"reason"`
	BalanceBefore int64     `db:"balance_before"`
	BalanceAfter  int64     `db:"balance_after"`
	CreatedAt     time.Time `db:"created_at"`
}

// Ledger reason codes for categorizing balance changes.
const (
	ReasonPurchase     = "purchase"      // ticket purchase debit
	ReasonCancelRefund = "cancel_refund" // cancelled ticket refund
	ReasonClaim        = "claim"         // won ticket payout claim
	ReasonAdjustAdd    = "adjust_add"    // operator added balance
	ReasonAdjustSub    = "adjust_sub"    // operator subtracted balance
)

// ManualOutcome is an operator-supplied result for a draw slot. It overrides
// smart selection for that slot and is consumed exactly once.
type ManualOutcome struct {
	ID        int64             `db:"id"`
	Variant   GameVariant       `db:"variant"`
	DrawDate  time.Time         `db:"draw_date"`
	DrawTime  string            `db:"draw_time"`
	Outcomes  map[string]string `db:"outcomes"` // unit -> candidate
	Used      bool              `db:"used"`
	UsedAt    *time.Time        `db:"used_at"`
	CreatedBy string            `db:"created_by"`
	CreatedAt time.Time         `db:"created_at"`
}
