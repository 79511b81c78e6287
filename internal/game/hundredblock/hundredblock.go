// Package hundredblock implements the hundred-block lottery variant: numbers
// 0-9999 grouped into 100 blocks of 100, each block drawing its own outcome.
// 2 points per unit, 90x payout on an exact match within the block.
package hundredblock

import (
	"fmt"
	"strconv"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

const (
	// PointsPerUnit is the stake cost of one quantity unit.
	PointsPerUnit int64 = 2
	// Multiplier is the payout multiplier on an exact match.
	Multiplier int64 = 90
	// BlockSize is the number of candidates per block.
	BlockSize = 100
	// minCandidates is the outcome selector's head-slice floor per block.
	minCandidates = 10
)

// Variant is the hundred-block game descriptor.
type Variant struct{}

// New creates the hundred-block variant.
func New() *Variant {
	return &Variant{}
}

// Key returns the variant identifier.
func (v *Variant) Key() model.GameVariant {
	return model.VariantHundredBlock
}

// Units returns the 100 block labels: "0", "100", ... "9900".
func (v *Variant) Units() []string {
	out := make([]string, 0, 100)
	for b := 0; b < 10000; b += BlockSize {
		out = append(out, strconv.Itoa(b))
	}
	return out
}

// Candidates enumerates the 100 numbers of one block.
func (v *Variant) Candidates(unit string) []string {
	base, err := strconv.Atoi(unit)
	if err != nil || base%BlockSize != 0 || base < 0 || base >= 10000 {
		return nil
	}
	out := make([]string, 0, BlockSize)
	for i := 0; i < BlockSize; i++ {
		out = append(out, strconv.Itoa(base+i))
	}
	return out
}

// MinCandidates returns the selector head-slice floor.
func (v *Variant) MinCandidates() int {
	return minCandidates
}

// UnitBudgetShare returns the payout budget fraction per block.
func (v *Variant) UnitBudgetShare() float64 {
	return 1.0
}

// BlockOf returns the block label a number belongs to, e.g. "4217" -> "4200".
func BlockOf(candidate string) (string, error) {
	n, err := strconv.Atoi(candidate)
	if err != nil || n < 0 || n >= 10000 || strconv.Itoa(n) != candidate {
		return "", fmt.Errorf("candidate %q is not a number 0-9999", candidate)
	}
	return strconv.Itoa(n / BlockSize * BlockSize), nil
}

// ValidateBet checks the number and stake parameters.
func (v *Variant) ValidateBet(bet model.Bet) error {
	if _, err := BlockOf(bet.Candidate); err != nil {
		return &game.ValidationError{Field: "candidate", Reason: "must be a number 0-9999"}
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
		return &game.ValidationError{Field: "target_unit", Reason: "derived from the number, not supplied"}
	}
	return nil
}

// Contributions resolves the bet to its number within its block.
func (v *Variant) Contributions(bet model.Bet) []game.Contribution {
	block, err := BlockOf(bet.Candidate)
	if err != nil {
		return nil
	}
	return []game.Contribution{{
		Unit:      block,
		Candidate: bet.Candidate,
		Payout:    bet.Quantity * bet.PointsPerUnit * Multiplier,
	}}
}

// Evaluate returns the payout for an exact match in the bet's block.
func (v *Variant) Evaluate(bet model.Bet, unit, outcome string) int64 {
	block, err := BlockOf(bet.Candidate)
	if err != nil || unit != block || bet.Candidate != outcome {
		return 0
	}
	return bet.Quantity * bet.PointsPerUnit * Multiplier
}
