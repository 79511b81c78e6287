package lock

import "sync"

// SlotGuard coordinates draw-cycle exclusion with the purchase cutover. A
// cycle marks its slot active and then holds the slot's keyed lock for the
// whole pipeline; purchases run inside PurchaseGate, which takes the same
// lock. Once generation has started no purchase can interleave with it: a
// purchase either completes before the cycle lists open tickets or waits
// until the cycle ends, by which time the persisted outcome closes the slot.
type SlotGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
	locks  *KeyedLock
}

// NewSlotGuard creates a new SlotGuard.
func NewSlotGuard() *SlotGuard {
	return &SlotGuard{
		active: make(map[string]struct{}),
		locks:  NewKeyedLock(),
	}
}

// TryBegin marks generation for a slot as started and waits for in-flight
// purchases to drain. Returns ErrCycleInProgress without blocking if
// another cycle already holds the slot.
func (g *SlotGuard) TryBegin(slotKey string) error {
	g.mu.Lock()
	if _, ok := g.active[slotKey]; ok {
		g.mu.Unlock()
		return ErrCycleInProgress
	}
	g.active[slotKey] = struct{}{}
	g.mu.Unlock()

	g.locks.Lock(slotKey)
	return nil
}

// End releases the slot after the cycle finishes. The purchase cutover
// remains in effect through the outcome-exists check, since outcomes are
// persisted before End is called.
func (g *SlotGuard) End(slotKey string) {
	g.locks.Unlock(slotKey)
	g.mu.Lock()
	delete(g.active, slotKey)
	g.mu.Unlock()
}

// InProgress reports whether generation for a slot is currently running.
func (g *SlotGuard) InProgress(slotKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[slotKey]
	return ok
}

// PurchaseGate runs fn while holding the slot's lock, failing fast with
// ErrSlotClosed when generation has started. fn should perform the
// outcome-exists check and the ticket insert.
func (g *SlotGuard) PurchaseGate(slotKey string, fn func() error) error {
	if g.InProgress(slotKey) {
		return ErrSlotClosed
	}
	return g.locks.WithLock(slotKey, func() error {
		if g.InProgress(slotKey) {
			return ErrSlotClosed
		}
		return fn()
	})
}
