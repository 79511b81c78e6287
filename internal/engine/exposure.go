// Package engine implements the outcome selection and settlement pipeline:
// exposure aggregation, payout-constrained outcome selection, and idempotent
// ticket settlement, one draw slot at a time.
package engine

import (
	"numbers-lottery/internal/game"
	"numbers-lottery/internal/model"
)

// CandidateExposure is the aggregated stake against one candidate outcome.
type CandidateExposure struct {
	StakeUnits      int64
	PointsCollected int64
	PotentialPayout int64
}

// UnitExposure maps candidate outcome to its exposure within one draw unit.
// Candidates nobody bet on are absent and count as zero.
type UnitExposure map[string]*CandidateExposure

// ExposureMap is the full exposure table for one draw slot.
type ExposureMap struct {
	Units       map[string]UnitExposure
	TotalPoints int64
}

// Payout returns the potential payout for a candidate, zero when absent.
func (u UnitExposure) Payout(candidate string) int64 {
	if e, ok := u[candidate]; ok {
		return e.PotentialPayout
	}
	return 0
}

// AggregateExposure scans the open tickets of a draw slot and builds the
// per-unit exposure table. Read-only: an empty ticket set yields an all-zero
// map, never an error. Cancelled or already-settled tickets must be filtered
// by the caller.
func AggregateExposure(variant game.Variant, tickets []model.Ticket) *ExposureMap {
	exp := &ExposureMap{Units: make(map[string]UnitExposure)}
	for _, u := range variant.Units() {
		exp.Units[u] = make(UnitExposure)
	}

	for _, t := range tickets {
		for _, bet := range t.Bets {
			exp.TotalPoints += bet.Points()
			for _, c := range variant.Contributions(bet) {
				unit, ok := exp.Units[c.Unit]
				if !ok {
					unit = make(UnitExposure)
					exp.Units[c.Unit] = unit
				}
				ce, ok := unit[c.Candidate]
				if !ok {
					ce = &CandidateExposure{}
					unit[c.Candidate] = ce
				}
				ce.StakeUnits += bet.Quantity
				ce.PointsCollected += bet.Points()
				ce.PotentialPayout += c.Payout
			}
		}
	}
	return exp
}
