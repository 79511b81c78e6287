package lock

import "errors"

// Lock-related errors.
var (
	// ErrCycleInProgress is returned when a draw cycle is already running
	// for the slot.
	ErrCycleInProgress = errors.New("draw cycle already in progress")

	// ErrSlotClosed is returned by the purchase gate once outcome
	// generation for the slot has started.
	ErrSlotClosed = errors.New("slot closed for new tickets")
)
