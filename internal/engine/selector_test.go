package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func numericCandidates(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%02d", i))
	}
	return out
}

// TestSelect_ZeroStakeIsUniform draws many times with no stake collected and
// checks every candidate appears with roughly equal frequency.
func TestSelect_ZeroStakeIsUniform(t *testing.T) {
	s := NewSelectorWithSource(rand.NewSource(1))
	candidates := numericCandidates(12)

	const trials = 12000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[s.Select(candidates, UnitExposure{}, 0, 0, 3)]++
	}

	expected := float64(trials) / float64(len(candidates))
	for _, c := range candidates {
		got := float64(counts[c])
		// Allow 30% deviation from the uniform expectation; with 1000
		// expected per bucket this is far beyond random noise.
		assert.InDelta(t, expected, got, 0.3*expected, "candidate %s drawn %v times", c, got)
	}
}

// TestSelect_RespectsBudget checks the core bound: whenever any candidate
// fits the budget, the chosen one does too; otherwise the pick is the
// global minimum payout.
func TestSelect_RespectsBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSelectorWithSource(rand.NewSource(rapid.Int64().Draw(t, "seed")))

		n := rapid.IntRange(1, 120).Draw(t, "candidates")
		candidates := numericCandidates(n)

		exposure := UnitExposure{}
		totalPoints := int64(0)
		for _, c := range candidates {
			if rapid.Bool().Draw(t, "bet-"+c) {
				payout := int64(rapid.IntRange(1, 5000).Draw(t, "payout-"+c))
				exposure[c] = &CandidateExposure{PotentialPayout: payout}
				totalPoints += payout / 90
			}
		}
		if totalPoints == 0 {
			totalPoints = 1
		}
		budget := float64(rapid.IntRange(0, 3000).Draw(t, "budget"))
		minCandidates := rapid.IntRange(1, 50).Draw(t, "min")

		chosen := s.Select(candidates, exposure, totalPoints, budget, minCandidates)
		require.Contains(t, candidates, chosen)

		anyFits := false
		globalMin := exposure.Payout(candidates[0])
		for _, c := range candidates {
			p := exposure.Payout(c)
			if float64(p) <= budget {
				anyFits = true
			}
			if p < globalMin {
				globalMin = p
			}
		}

		if anyFits {
			if float64(exposure.Payout(chosen)) > budget {
				t.Fatalf("chosen %s payout %d exceeds budget %v", chosen, exposure.Payout(chosen), budget)
			}
		} else if exposure.Payout(chosen) != globalMin {
			t.Fatalf("fallback pick %s payout %d, want global minimum %d", chosen, exposure.Payout(chosen), globalMin)
		}
	})
}

// TestSelect_HeadSliceClipped verifies the head never exceeds the valid set
// even when minCandidates is larger.
func TestSelect_HeadSliceClipped(t *testing.T) {
	s := NewSelectorWithSource(rand.NewSource(7))
	candidates := []string{"00", "01", "02"}
	exposure := UnitExposure{
		"00": {PotentialPayout: 10},
		"01": {PotentialPayout: 20},
		"02": {PotentialPayout: 5000},
	}

	for i := 0; i < 200; i++ {
		chosen := s.Select(candidates, exposure, 100, 100, 50)
		assert.NotEqual(t, "02", chosen, "over-budget candidate must not be chosen")
	}
}

// TestSelect_TieBreakIsUniform checks that equal-payout candidates (the
// zero-exposure majority) are not biased by input order.
func TestSelect_TieBreakIsUniform(t *testing.T) {
	s := NewSelectorWithSource(rand.NewSource(42))
	candidates := numericCandidates(100)

	// One heavily-bet candidate, everyone else at zero.
	exposure := UnitExposure{"50": {PotentialPayout: 100000}}

	const trials = 10000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[s.Select(candidates, exposure, 1000, 700, 10)]++
	}

	assert.Zero(t, counts["50"], "over-budget candidate must never be chosen")

	// The head slice is floor(0.3*99)=29 of the shuffled zero-payout
	// candidates, so each of the 99 should be drawn sometimes.
	drawn := 0
	for c, n := range counts {
		if n > 0 {
			drawn++
			assert.NotEqual(t, "50", c)
		}
	}
	assert.Greater(t, drawn, 90, "tie-break should reach nearly all zero-exposure candidates")
}

func TestSelect_EmptyCandidates(t *testing.T) {
	s := NewSelectorWithSource(rand.NewSource(1))
	assert.Equal(t, "", s.Select(nil, UnitExposure{}, 0, 0, 10))
}
