package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"numbers-lottery/internal/model"
	"numbers-lottery/internal/scheduler"
	"numbers-lottery/internal/service"
)

// TicketHandler serves the ticket lifecycle endpoints.
type TicketHandler struct {
	tickets *service.TicketService
	sched   *scheduler.Scheduler
}

// NewTicketHandler creates a new TicketHandler instance.
func NewTicketHandler(tickets *service.TicketService, sched *scheduler.Scheduler) *TicketHandler {
	return &TicketHandler{tickets: tickets, sched: sched}
}

type betRequest struct {
	Candidate     string `json:"candidate" binding:"required"`
	Quantity      int64  `json:"quantity" binding:"required,min=1"`
	PointsPerUnit int64  `json:"points_per_unit" binding:"required,min=1"`
	PlayType      string `json:"play_type"`
	TargetUnit    string `json:"target_unit"`
}

type purchaseRequest struct {
	AccountID int64        `json:"account_id" binding:"required"`
	Variant   string       `json:"variant" binding:"required"`
	Bets      []betRequest `json:"bets" binding:"required"`
}

// Purchase creates a ticket against the variant's next draw.
func (h *TicketHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	bets := make([]model.Bet, 0, len(req.Bets))
	for _, b := range req.Bets {
		bets = append(bets, model.Bet{
			Candidate:     b.Candidate,
			Quantity:      b.Quantity,
			PointsPerUnit: b.PointsPerUnit,
			PlayType:      model.PlayType(b.PlayType),
			TargetUnit:    b.TargetUnit,
		})
	}

	slot := h.sched.NextSlotFor(model.GameVariant(req.Variant), time.Now())
	ticket, err := h.tickets.Purchase(c.Request.Context(), req.AccountID, slot, bets)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"ticket":  ticketJSON(ticket),
	})
}

type cancelRequest struct {
	AccountID int64 `json:"account_id" binding:"required"`
}

// Cancel refunds an active ticket before its draw is generated.
func (h *TicketHandler) Cancel(c *gin.Context) {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	refund, balance, err := h.tickets.Cancel(c.Request.Context(), ticketID, req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"refund":      refund,
		"new_balance": balance,
	})
}

// Claim pays a won ticket into its owner's wallet.
func (h *TicketHandler) Claim(c *gin.Context) {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return
	}

	result, err := h.tickets.Claim(c.Request.Context(), ticketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"payout_amount": result.PayoutAmount,
		"new_balance":   result.NewBalance,
	})
}

// CheckBySerial returns a ticket by its serial ID.
func (h *TicketHandler) CheckBySerial(c *gin.Context) {
	ticket, err := h.tickets.CheckBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticketJSON(ticket)})
}

// CheckByBarcode returns a ticket by its scannable barcode.
func (h *TicketHandler) CheckByBarcode(c *gin.Context) {
	ticket, err := h.tickets.CheckByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticketJSON(ticket)})
}

// ListByAccount returns an account's most recent tickets.
func (h *TicketHandler) ListByAccount(c *gin.Context) {
	accountID, err := pathID(c, "id")
	if err != nil {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tickets, err := h.tickets.ListByAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(tickets))
	for i := range tickets {
		response = append(response, ticketJSON(&tickets[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tickets": response,
		"count":   len(response),
	})
}

func ticketJSON(t *model.Ticket) gin.H {
	return gin.H{
		"id":             t.ID,
		"serial_id":      t.SerialID,
		"barcode":        t.Barcode,
		"account_id":     t.AccountID,
		"variant":        t.Variant,
		"draw_date":      t.DrawDate.Format("2006-01-02"),
		"draw_time":      t.DrawTime,
		"bets":           t.Bets,
		"total_quantity": t.TotalQuantity,
		"total_points":   t.TotalPoints,
		"status":         t.Status,
		"win_status":     t.WinStatus,
		"win_amount":     t.WinAmount,
		"claimed":        t.Claimed,
		"valid_until":    t.ValidUntil,
		"created_at":     t.CreatedAt,
	}
}

var errInvalidID = errors.New("invalid path id")

// pathID parses an int64 path parameter, writing the error response itself
// on failure.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, errInvalidID
	}
	return id, nil
}
