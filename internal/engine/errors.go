package engine

import "errors"

// Engine errors.
var (
	// ErrUnknownVariant is returned when no variant is registered for the
	// requested game.
	ErrUnknownVariant = errors.New("unknown game variant")

	// ErrGameDisabled is returned when the variant is disabled in settings.
	ErrGameDisabled = errors.New("game is disabled")

	// ErrAlreadyDrawn is returned when the slot already has a persisted
	// outcome. Re-triggers are no-ops, not failures.
	ErrAlreadyDrawn = errors.New("outcome already drawn for slot")
)
