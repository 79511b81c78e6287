package threedigit

import (
	"fmt"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

const (
	// PointsPerUnit is the stake cost of one quantity unit.
	PointsPerUnit int64 = 10
	// minCandidates is the outcome selector's head-slice floor per draw.
	minCandidates = 50
)

// Units are the three parallel draws of one slot. Each is bet and settled
// independently and consumes one third of the slot's payout budget.
var Units = []string{"A", "B", "C"}

// Variant is the three-digit game descriptor.
type Variant struct{}

// New creates the three-digit variant.
func New() *Variant {
	return &Variant{}
}

// Key returns the variant identifier.
func (v *Variant) Key() model.GameVariant {
	return model.VariantThreeDigit
}

// Units returns the three parallel draws A/B/C.
func (v *Variant) Units() []string {
	out := make([]string, len(Units))
	copy(out, Units)
	return out
}

// Candidates enumerates "000" through "999".
func (v *Variant) Candidates(unit string) []string {
	out := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		out = append(out, fmt.Sprintf("%03d", i))
	}
	return out
}

// MinCandidates returns the selector head-slice floor.
func (v *Variant) MinCandidates() int {
	return minCandidates
}

// UnitBudgetShare returns the payout budget fraction per parallel draw.
func (v *Variant) UnitBudgetShare() float64 {
	return 1.0 / 3.0
}

// ValidateBet checks the pattern against the play type, the target draw and
// the stake parameters.
func (v *Variant) ValidateBet(bet model.Bet) error {
	if bet.Quantity <= 0 {
		return &game.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if bet.PointsPerUnit != PointsPerUnit {
		return &game.ValidationError{Field: "points_per_unit", Reason: fmt.Sprintf("must be %d", PointsPerUnit)}
	}
	if !validUnit(bet.TargetUnit) {
		return &game.ValidationError{Field: "target_unit", Reason: "must be A, B or C"}
	}
	if len(bet.Candidate) != 3 {
		return &game.ValidationError{Field: "candidate", Reason: "must be three characters"}
	}

	switch bet.PlayType {
	case model.PlayStraight:
		if !allDigits(bet.Candidate) {
			return &game.ValidationError{Field: "candidate", Reason: "straight requires three digits"}
		}
	case model.PlayBox3Way:
		if !allDigits(bet.Candidate) || distinctDigits(bet.Candidate) != 2 {
			return &game.ValidationError{Field: "candidate", Reason: "box-3-way requires three digits with exactly one repeated"}
		}
	case model.PlayBox6Way:
		if !allDigits(bet.Candidate) || distinctDigits(bet.Candidate) != 3 {
			return &game.ValidationError{Field: "candidate", Reason: "box-6-way requires three distinct digits"}
		}
	case model.PlayFrontPair:
		if !pairShape(bet.Candidate, 2) {
			return &game.ValidationError{Field: "candidate", Reason: "front-pair requires two digits then X"}
		}
	case model.PlayBackPair:
		if !pairShape(bet.Candidate, 0) {
			return &game.ValidationError{Field: "candidate", Reason: "back-pair requires X then two digits"}
		}
	case model.PlaySplitPair:
		if !pairShape(bet.Candidate, 1) {
			return &game.ValidationError{Field: "candidate", Reason: "split-pair requires digit, X, digit"}
		}
	case model.PlayAnyPair:
		if _, _, ok := pairDigits(bet.Candidate); !ok {
			return &game.ValidationError{Field: "candidate", Reason: "any-pair requires two digits and one X"}
		}
	default:
		return &game.ValidationError{Field: "play_type", Reason: "unknown play type"}
	}
	return nil
}

// Contributions resolves a bet to every outcome it would win against in its
// target draw. Pair plays expand the wildcard; box plays expand to the
// distinct permutations; any-pair scans the full space because its payout
// varies with the match count.
func (v *Variant) Contributions(bet model.Bet) []game.Contribution {
	stake := bet.Quantity * bet.PointsPerUnit
	unit := bet.TargetUnit

	switch bet.PlayType {
	case model.PlayStraight:
		return []game.Contribution{{Unit: unit, Candidate: bet.Candidate, Payout: stake * MultiplierStraight}}

	case model.PlayBox3Way, model.PlayBox6Way:
		mult := Multiplier(bet.PlayType)
		perms := permutations(bet.Candidate)
		out := make([]game.Contribution, 0, len(perms))
		for _, p := range perms {
			out = append(out, game.Contribution{Unit: unit, Candidate: p, Payout: stake * mult})
		}
		return out

	case model.PlayFrontPair:
		out := make([]game.Contribution, 0, 10)
		for d := byte('0'); d <= '9'; d++ {
			c := string([]byte{bet.Candidate[0], bet.Candidate[1], d})
			out = append(out, game.Contribution{Unit: unit, Candidate: c, Payout: stake * MultiplierPair})
		}
		return out

	case model.PlayBackPair:
		out := make([]game.Contribution, 0, 10)
		for d := byte('0'); d <= '9'; d++ {
			c := string([]byte{d, bet.Candidate[1], bet.Candidate[2]})
			out = append(out, game.Contribution{Unit: unit, Candidate: c, Payout: stake * MultiplierPair})
		}
		return out

	case model.PlaySplitPair:
		out := make([]game.Contribution, 0, 10)
		for d := byte('0'); d <= '9'; d++ {
			c := string([]byte{bet.Candidate[0], d, bet.Candidate[2]})
			out = append(out, game.Contribution{Unit: unit, Candidate: c, Payout: stake * MultiplierPair})
		}
		return out

	case model.PlayAnyPair:
		var out []game.Contribution
		for i := 0; i < 1000; i++ {
			c := fmt.Sprintf("%03d", i)
			if n := AnyPairCount(bet.Candidate, c); n > 0 {
				out = append(out, game.Contribution{Unit: unit, Candidate: c, Payout: stake * MultiplierAnyPair * int64(n)})
			}
		}
		return out
	}
	return nil
}

// Evaluate returns the payout a bet earns when its target draw shows the
// outcome. Bets never win against draws they did not target.
func (v *Variant) Evaluate(bet model.Bet, unit, outcome string) int64 {
	if unit != bet.TargetUnit {
		return 0
	}
	return bet.Quantity * bet.PointsPerUnit * MatchMultiplier(bet.Candidate, bet.PlayType, outcome)
}

func validUnit(u string) bool {
	return u == "A" || u == "B" || u == "C"
}

// pairShape checks a pattern with digits everywhere except one X at the
// given position.
func pairShape(s string, xPos int) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if i == xPos {
			if s[i] != Wildcard {
				return false
			}
		} else if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
