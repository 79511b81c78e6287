// Package service provides business logic implementations.
package service

import "errors"

// Common errors for ticket and wallet operations.
var (
	ErrUnknownGame   = errors.New("unknown game variant")
	ErrGameDisabled  = errors.New("game is disabled")
	ErrBettingClosed = errors.New("betting is closed for this draw")
	ErrNoBets        = errors.New("ticket must contain at least one bet")
)
