package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numbers-lottery/internal/game"
	"numbers-lottery/internal/game/threedigit"
	"numbers-lottery/internal/game/twodigit"
	"numbers-lottery/internal/model"
	"numbers-lottery/internal/pkg/lock"
)

func testRegistry(t *testing.T) *game.Registry {
	t.Helper()
	r := game.NewRegistry()
	require.NoError(t, r.Register(twodigit.New()))
	require.NoError(t, r.Register(threedigit.New()))
	return r
}

func newTestEngine(t *testing.T, tickets *fakeTicketStore, results *fakeResultStore, overrides *fakeOverrides, seed int64) (*Engine, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	e := New(
		testRegistry(t),
		lock.NewSlotGuard(),
		NewSelectorWithSource(rand.NewSource(seed)),
		tickets,
		results,
		&fakeSettings{percent: 70, enabled: true},
		overrides,
		pub,
	)
	return e, pub
}

// TestRunDrawCycle_LoneBetAlwaysLoses replays the deterministic scenario:
// 10 points staked on "42" with a 70% ratio gives a budget of 7, far below
// the 900 payout "42" would cost, and every other candidate costs 0. "42"
// can never be drawn, so the ticket always loses.
func TestRunDrawCycle_LoneBetAlwaysLoses(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)

	for seed := int64(0); seed < 50; seed++ {
		tickets := newFakeTicketStore(twoDigitTicket(1, "42", 5))
		e, _ := newTestEngine(t, tickets, newFakeResultStore(), &fakeOverrides{}, seed)

		res, err := e.RunDrawCycle(context.Background(), slot)
		require.NoError(t, err)

		require.NotEqual(t, "42", res.Outcome[""], "seed %d drew the over-budget candidate", seed)
		assert.Equal(t, 1, res.Summary.Lost)
		assert.Zero(t, res.Summary.Won)
		assert.Equal(t, model.WinLost, tickets.get(1).WinStatus)
	}
}

func TestRunDrawCycle_PersistsSettlesPublishes(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)
	tickets := newFakeTicketStore(twoDigitTicket(1, "42", 5))
	results := newFakeResultStore()
	e, pub := newTestEngine(t, tickets, results, &fakeOverrides{}, 1)

	res, err := e.RunDrawCycle(context.Background(), slot)
	require.NoError(t, err)

	saved, ok := results.saved[slot.Key()]
	require.True(t, ok, "outcome must be persisted")
	assert.Equal(t, res.Outcome, saved)

	require.Len(t, pub.published, 1)
	assert.Equal(t, res.Outcome, pub.published[0].Outcome)
	assert.Equal(t, res.Summary, pub.published[0].Summary)
}

func TestRunDrawCycle_AlreadyDrawn(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)
	results := newFakeResultStore()
	e, pub := newTestEngine(t, newFakeTicketStore(), results, &fakeOverrides{}, 1)

	_, err := e.RunDrawCycle(context.Background(), slot)
	require.NoError(t, err)

	_, err = e.RunDrawCycle(context.Background(), slot)
	assert.ErrorIs(t, err, ErrAlreadyDrawn)
	assert.Len(t, pub.published, 1, "a no-op re-trigger must not republish")
}

func TestRunDrawCycle_DisabledGame(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)
	e := New(
		testRegistry(t),
		lock.NewSlotGuard(),
		NewSelectorWithSource(rand.NewSource(1)),
		newFakeTicketStore(),
		newFakeResultStore(),
		&fakeSettings{percent: 70, enabled: false},
		&fakeOverrides{},
	)

	_, err := e.RunDrawCycle(context.Background(), slot)
	assert.ErrorIs(t, err, ErrGameDisabled)
}

func TestRunDrawCycle_UnknownVariant(t *testing.T) {
	e, _ := newTestEngine(t, newFakeTicketStore(), newFakeResultStore(), &fakeOverrides{}, 1)

	_, err := e.RunDrawCycle(context.Background(), model.DrawSlot{Variant: "5D"})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestRunDrawCycle_ManualOverride(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)
	tickets := newFakeTicketStore(twoDigitTicket(1, "42", 5))
	overrides := &fakeOverrides{outcome: Outcome{"": "42"}}
	e, _ := newTestEngine(t, tickets, newFakeResultStore(), overrides, 1)

	res, err := e.RunDrawCycle(context.Background(), slot)
	require.NoError(t, err)

	// The override wins even though "42" blows the budget.
	assert.Equal(t, "42", res.Outcome[""])
	assert.Equal(t, 1, res.Summary.Won)
	assert.Equal(t, int64(900), tickets.get(1).WinAmount)
	assert.Equal(t, 1, overrides.consumed)
}

func TestRunDrawCycle_PartialOverrideRejected(t *testing.T) {
	slot := testSlot(model.VariantThreeDigit)
	// Only unit A supplied; B and C missing. The override is discarded
	// whole and smart selection runs for all three units.
	overrides := &fakeOverrides{outcome: Outcome{"A": "123"}}
	e, _ := newTestEngine(t, newFakeTicketStore(), newFakeResultStore(), overrides, 1)

	res, err := e.RunDrawCycle(context.Background(), slot)
	require.NoError(t, err)

	assert.Equal(t, 1, overrides.consumed)
	require.Len(t, res.Outcome, 3)
	for _, u := range []string{"A", "B", "C"} {
		assert.Len(t, res.Outcome[u], 3, "unit %s must have a drawn outcome", u)
	}
}

func TestRunDrawCycle_InvalidOverrideCandidateRejected(t *testing.T) {
	slot := testSlot(model.VariantTwoDigit)
	overrides := &fakeOverrides{outcome: Outcome{"": "banana"}}
	e, _ := newTestEngine(t, newFakeTicketStore(), newFakeResultStore(), overrides, 1)

	res, err := e.RunDrawCycle(context.Background(), slot)
	require.NoError(t, err)
	assert.NotEqual(t, "banana", res.Outcome[""])
	assert.Len(t, res.Outcome[""], 2)
}

// TestRunDrawCycle_ThreeDigitBudgetSplit stakes everything on unit A and
// checks the selection respects the per-unit third of the budget: the bet
// candidate must not be drawn for A, while B and C draw freely.
func TestRunDrawCycle_ThreeDigitBudgetSplit(t *testing.T) {
	slot := testSlot(model.VariantThreeDigit)

	for seed := int64(0); seed < 20; seed++ {
		tickets := newFakeTicketStore(model.Ticket{
			ID:       1,
			Variant:  slot.Variant,
			DrawDate: slot.DrawDate,
			DrawTime: slot.DrawTime,
			Bets: []model.Bet{{
				Candidate: "123", Quantity: 1, PointsPerUnit: 10,
				PlayType: model.PlayStraight, TargetUnit: "A",
			}},
		})
		e, _ := newTestEngine(t, tickets, newFakeResultStore(), &fakeOverrides{}, seed)

		res, err := e.RunDrawCycle(context.Background(), slot)
		require.NoError(t, err)

		// Budget per unit = 10 x 0.7 / 3; the 9000 straight payout can
		// never fit.
		assert.NotEqual(t, "123", res.Outcome["A"], "seed %d", seed)
		assert.Equal(t, model.WinLost, tickets.get(1).WinStatus)
	}
}
