package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"numbers-lottery/internal/model"
	"numbers-lottery/internal/service"
)

// WalletHandler serves account and balance endpoints.
type WalletHandler struct {
	wallet *service.WalletService
}

// NewWalletHandler creates a new WalletHandler instance.
func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type createAccountRequest struct {
	Name    string `json:"name" binding:"required"`
	Balance int64  `json:"balance" binding:"min=0"`
}

// CreateAccount opens a wallet account, optionally with a starting balance.
func (h *WalletHandler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	acc, err := h.wallet.CreateAccount(c.Request.Context(), req.Name, req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "account": accountJSON(acc)})
}

// GetAccount returns an account with its current balance.
func (h *WalletHandler) GetAccount(c *gin.Context) {
	accountID, err := pathID(c, "id")
	if err != nil {
		return
	}

	acc, err := h.wallet.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "account": accountJSON(acc)})
}

type adjustRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Adjust applies an operator balance adjustment, positive or negative.
func (h *WalletHandler) Adjust(c *gin.Context) {
	accountID, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	balance, err := h.wallet.Adjust(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"amount":      req.Amount,
		"new_balance": balance,
	})
}

// ListLedger returns an account's most recent balance mutations.
func (h *WalletHandler) ListLedger(c *gin.Context) {
	accountID, err := pathID(c, "id")
	if err != nil {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.wallet.ListLedger(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		response = append(response, gin.H{
			"id":             e.ID,
			"delta":          e.Delta,
			"reason":         e.Reason,
			"balance_before": e.BalanceBefore,
			"balance_after":  e.BalanceAfter,
			"created_at":     e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": response,
		"count":   len(response),
	})
}

func accountJSON(a *model.Account) gin.H {
	return gin.H{
		"id":         a.ID,
		"name":       a.Name,
		"balance":    a.Balance,
		"created_at": a.CreatedAt,
	}
}
