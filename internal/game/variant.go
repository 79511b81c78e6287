// Package game defines the lottery variant descriptor and registry. All four
// games share the same draw engine; everything variant-specific lives behind
// the Variant interface, so adding a game means implementing it and
// registering the implementation.
package game

import (
	"fmt"

	"numbers-lottery/internal/model"
)

// Contribution is one candidate outcome a bet would win against, with the
// full payout owed if that candidate is drawn for the unit. Exposure
// aggregation sums these per (unit, candidate).
type Contribution struct {
	Unit      string
	Candidate string
	Payout    int64
}

// Variant describes one lottery game to the draw engine.
type Variant interface {
	// Key returns the variant identifier.
	Key() model.GameVariant

	// Units returns the sub-units drawn and settled independently within one
	// draw slot. Single-outcome games return one empty-string unit.
	Units() []string

	// Candidates returns the full outcome space of a unit.
	Candidates(unit string) []string

	// MinCandidates returns the minimum head-slice size the outcome selector
	// keeps, regardless of how few candidates fit the budget.
	MinCandidates() int

	// UnitBudgetShare returns the fraction of the slot payout budget each
	// unit may consume. 1.0 for single-unit games.
	UnitBudgetShare() float64

	// ValidateBet checks a bet's candidate pattern, play type and stake
	// parameters. Returns a *ValidationError describing the first failure.
	ValidateBet(bet model.Bet) error

	// Contributions resolves a bet to every candidate it would win against.
	// For every valid bet, unit and outcome, the payout here must equal
	// Evaluate(bet, unit, outcome).
	Contributions(bet model.Bet) []Contribution

	// Evaluate returns the payout a bet earns when the unit draws the given
	// outcome, 0 for a loss.
	Evaluate(bet model.Bet, unit, outcome string) int64
}

// ValidationError reports a rejected bet.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bet: %s: %s", e.Field, e.Reason)
}
