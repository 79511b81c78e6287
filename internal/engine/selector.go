package engine

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// headFraction is the share of the valid candidate list the selector keeps
// after sorting by exposure. Choosing randomly inside this head biases
// toward low house exposure while staying unpredictable; a deterministic
// minimum would let bettors infer zero-bet numbers.
const headFraction = 0.3

// Selector picks draw outcomes constrained by the payout budget.
// Stateless apart from its random source; safe to call from one draw cycle
// at a time per instance, guarded by the internal mutex.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector seeded from the current time.
func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource creates a selector with a caller-supplied source,
// used by tests for reproducible draws.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// Select chooses one outcome for a draw unit.
//
// With no stake collected the pick is uniform over the full candidate
// space. Otherwise candidates whose potential payout fits the budget are
// sorted ascending by payout and the pick is uniform within the head slice
// of size max(minCandidates, floor(0.3 x |valid|)). When nothing fits the
// budget, the globally cheapest candidate is chosen: minimize the overrun,
// never fail.
func (s *Selector) Select(candidates []string, exposure UnitExposure, totalPoints int64, budget float64, minCandidates int) string {
	if len(candidates) == 0 {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if totalPoints == 0 {
		return candidates[s.rng.Intn(len(candidates))]
	}

	// Shuffle before the stable sort so candidates with equal payout
	// (typically the zero-exposure majority) are ordered uniformly.
	shuffled := make([]string, len(candidates))
	copy(shuffled, candidates)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	valid := make([]string, 0, len(shuffled))
	for _, c := range shuffled {
		if float64(exposure.Payout(c)) <= budget {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return s.globalMinimum(shuffled, exposure)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return exposure.Payout(valid[i]) < exposure.Payout(valid[j])
	})

	head := int(math.Floor(headFraction * float64(len(valid))))
	if head < minCandidates {
		head = minCandidates
	}
	if head > len(valid) {
		head = len(valid)
	}
	return valid[s.rng.Intn(head)]
}

// globalMinimum returns the candidate with the lowest potential payout.
// Ties resolve to the first occurrence, which is uniform given the caller
// shuffles first.
func (s *Selector) globalMinimum(candidates []string, exposure UnitExposure) string {
	best := candidates[0]
	bestPayout := exposure.Payout(best)
	for _, c := range candidates[1:] {
		if p := exposure.Payout(c); p < bestPayout {
			best, bestPayout = c, p
		}
	}
	return best
}
