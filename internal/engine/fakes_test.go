package engine

import (
	"context"
	"fmt"
	"sync"

	"numbers-lottery/internal/model"
)

// fakeTicketStore is an in-memory TicketStore with compare-and-set
// settlement semantics matching the repository.
type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[int64]*model.Ticket
	failIDs map[int64]bool // ticket IDs whose Settle returns an error
}

func newFakeTicketStore(tickets ...model.Ticket) *fakeTicketStore {
	s := &fakeTicketStore{
		tickets: make(map[int64]*model.Ticket),
		failIDs: make(map[int64]bool),
	}
	for i := range tickets {
		t := tickets[i]
		if t.Status == "" {
			t.Status = model.TicketActive
		}
		if t.WinStatus == "" {
			t.WinStatus = model.WinPending
		}
		s.tickets[t.ID] = &t
	}
	return s
}

func (s *fakeTicketStore) ListOpen(ctx context.Context, slot model.DrawSlot) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.Variant == slot.Variant && t.DrawTime == slot.DrawTime &&
			t.DrawDate.Equal(slot.DrawDate) &&
			t.Status == model.TicketActive && t.WinStatus == model.WinPending {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeTicketStore) Settle(ctx context.Context, ticketID int64, won bool, winAmount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[ticketID] {
		return false, fmt.Errorf("simulated settle failure for ticket %d", ticketID)
	}
	t, ok := s.tickets[ticketID]
	if !ok {
		return false, fmt.Errorf("ticket %d not found", ticketID)
	}
	if t.WinStatus != model.WinPending {
		return false, nil
	}
	if won {
		t.WinStatus = model.WinWon
		t.Status = model.TicketWon
	} else {
		t.WinStatus = model.WinLost
		t.Status = model.TicketLost
	}
	t.WinAmount = winAmount
	return true, nil
}

func (s *fakeTicketStore) get(id int64) model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tickets[id]
}

// fakeResultStore is an in-memory ResultStore.
type fakeResultStore struct {
	mu    sync.Mutex
	saved map[string]Outcome
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{saved: make(map[string]Outcome)}
}

func (s *fakeResultStore) Exists(ctx context.Context, slot model.DrawSlot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[slot.Key()]
	return ok, nil
}

func (s *fakeResultStore) SaveAll(ctx context.Context, slot model.DrawSlot, outcome Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[slot.Key()] = outcome
	return nil
}

// fakeSettings returns a fixed settings snapshot.
type fakeSettings struct {
	percent int
	enabled bool
}

func (s *fakeSettings) Snapshot(ctx context.Context, v model.GameVariant) (model.GameSettings, error) {
	return model.GameSettings{Variant: v, TargetPayoutPercent: s.percent, Enabled: s.enabled}, nil
}

// fakeOverrides hands out one manual outcome and counts consumption.
type fakeOverrides struct {
	mu       sync.Mutex
	outcome  Outcome
	consumed int
}

func (s *fakeOverrides) Consume(ctx context.Context, slot model.DrawSlot) (Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return nil, false, nil
	}
	out := s.outcome
	s.outcome = nil
	s.consumed++
	return out, true, nil
}

// fakePublisher records published outcomes.
type fakePublisher struct {
	mu        sync.Mutex
	published []CycleResult
}

func (p *fakePublisher) PublishOutcome(ctx context.Context, slot model.DrawSlot, outcome Outcome, summary Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, CycleResult{Slot: slot, Outcome: outcome, Summary: summary})
}
