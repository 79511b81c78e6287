// Package handler exposes the HTTP API: ticket lifecycle, wallet
// operations, published results and operator controls.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/game"
	"numbers-lottery/internal/pkg/lock"
	"numbers-lottery/internal/repository"
	"numbers-lottery/internal/scheduler"
	"numbers-lottery/internal/service"
)

// respondError maps domain errors onto HTTP statuses and writes the JSON
// error body.
func respondError(c *gin.Context, err error) {
	var vErr *game.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bet", "details": vErr.Error()})

	case errors.Is(err, service.ErrUnknownGame),
		errors.Is(err, service.ErrNoBets),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, engine.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, repository.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrBettingClosed),
		errors.Is(err, service.ErrGameDisabled),
		errors.Is(err, engine.ErrGameDisabled),
		errors.Is(err, engine.ErrAlreadyDrawn),
		errors.Is(err, lock.ErrCycleInProgress),
		errors.Is(err, scheduler.ErrOutsideOperatingHours),
		errors.Is(err, repository.ErrTicketNotActive),
		errors.Is(err, repository.ErrAlreadyClaimed),
		errors.Is(err, repository.ErrNothingToClaim),
		errors.Is(err, repository.ErrClaimExpired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}
