// Package twodigit implements the two-digit lottery variant: candidates
// "00" through "99", 2 points per unit, 90x payout on an exact match.
package twodigit

import (
	"fmt"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

const (
	// PointsPerUnit is the stake cost of one quantity unit.
	PointsPerUnit int64 = 2
	// Multiplier is the payout multiplier on an exact match.
	Multiplier int64 = 90
	// minCandidates is the outcome selector's head-slice floor.
	minCandidates = 10
)

// Variant is the two-digit game descriptor.
type Variant struct{}

// New creates the two-digit variant.
func New() *Variant {
	return &Variant{}
}

// Key returns the variant identifier.
func (v *Variant) Key() model.GameVariant {
	return model.VariantTwoDigit
}

// Units returns the single draw unit.
func (v *Variant) Units() []string {
	return []string{""}
}

// Candidates enumerates "00" through "99".
func (v *Variant) Candidates(unit string) []string {
	out := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		out = append(out, fmt.Sprintf("%02d", i))
	}
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

// ValidateBet checks the candidate pattern and stake parameters.
func (v *Variant) ValidateBet(bet model.Bet) error {
	if !isTwoDigits(bet.Candidate) {
		return &game.ValidationError{Field: "candidate", Reason: "must be two digits 00-99"}
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

// Contributions resolves the bet to its single winning candidate.
func (v *Variant) Contributions(bet model.Bet) []game.Contribution {
	return []game.Contribution{{
		Unit:      "",
		Candidate: bet.Candidate,
		Payout:    bet.Quantity * bet.PointsPerUnit * Multiplier,
	}}
}

// Evaluate returns the payout for an exact match, 0 otherwise.
func (v *Variant) Evaluate(bet model.Bet, unit, outcome string) int64 {
	if unit != "" || bet.Candidate != outcome {
		return 0
	}
	return bet.Quantity * bet.PointsPerUnit * Multiplier
}

func isTwoDigits(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
