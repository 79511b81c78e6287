// Package twelvesymbol implements the twelve-symbol lottery variant: twelve
// named symbols, 10 points per unit, 10x payout on a match.
package twelvesymbol

import (
	"fmt"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

const (
	// PointsPerUnit is the stake cost of one quantity unit.
	PointsPerUnit int64 = 10
	// Multiplier is the payout multiplier on a match.
	Multiplier int64 = 10
	// minCandidates is the outcome selector's head-slice floor.
	minCandidates = 3
)

// Symbols is the fixed outcome space, in wheel order.
var Symbols = []string{
	"umbrella", "book", "basket", "butterfly", "bucket", "football",
	"goat", "spinning-top", "rose", "sun", "bird", "rabbit",
}

// Variant is the twelve-symbol game descriptor.
type Variant struct {
	symbolSet map[string]struct{}
}

// New creates the twelve-symbol variant.
func New() *Variant {
	set := make(map[string]struct{}, len(Symbols))
	for _, s := range Symbols {
		set[s] = struct{}{}
	}
	return &Variant{symbolSet: set}
}

// Key returns the variant identifier.
func (v *Variant) Key() model.GameVariant {
	return model.VariantTwelveSymbol
}

// Units returns the single draw unit.
func (v *Variant) Units() []string {
	return []string{""}
}

// Candidates returns the twelve symbols.
func (v *Variant) Candidates(unit string) []string {
	out := make([]string, len(Symbols))
	copy(out, Symbols)
	return out
}

// MinCandidates returns the selector head-slice floor.
func (v *Variant) MinCandidates() int {
	return minCandidates
}

// UnitBudgetShare returns the payout budget fraction per unit.
func (v *Variant) UnitBudgetShare() float64 {
	return 1.0
}

// ValidateBet checks the symbol and stake parameters.
func (v *Variant) ValidateBet(bet model.Bet) error {
	if _, ok := v.symbolSet[bet.Candidate]; !ok {
		return &game.ValidationError{Field: "candidate", Reason: "unknown symbol"}
	}
	if bet.Quantity <= 0 {
		return &game.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if bet.PointsPerUnit != PointsPerUnit {
		return &game.ValidationError{Field: "points_per_unit", Reason: fmt.Sprintf("must be %d", PointsPerUnit)}
	}
	if bet.PlayType != "" {
		return &game.ValidationError{Field: "play_type", Reason: "not supported for this game"}
	}
	if bet.TargetUnit != "" {
		return &game.ValidationError{Field: "target_unit", Reason: "not supported for this game"}
	}
	return nil
}

// Contributions resolves the bet to its single winning symbol.
func (v *Variant) Contributions(bet model.Bet) []game.Contribution {
	return []game.Contribution{{
		Unit:      "",
		Candidate: bet.Candidate,
		Payout:    bet.Quantity * bet.PointsPerUnit * Multiplier,
	}}
}

// Evaluate returns the payout for a symbol match, 0 otherwise.
func (v *Variant) Evaluate(bet model.Bet, unit, outcome string) int64 {
	if unit != "" || bet.Candidate != outcome {
		return 0
	}
	return bet.Quantity * bet.PointsPerUnit * Multiplier
}
