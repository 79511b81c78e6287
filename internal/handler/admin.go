package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/model"
	"numbers-lottery/internal/repository"
	"numbers-lottery/internal/scheduler"
)

// AdminHandler serves the operator endpoints: per-game settings, manual
// outcome overrides and manual draw triggers.
type AdminHandler struct {
	settings *repository.SettingsRepository
	manual   *repository.ManualOutcomeRepository
	sched    *scheduler.Scheduler
	loc      *time.Location
}

// NewAdminHandler creates a new AdminHandler instance.
func NewAdminHandler(
	settings *repository.SettingsRepository,
	manual *repository.ManualOutcomeRepository,
	sched *scheduler.Scheduler,
	loc *time.Location,
) *AdminHandler {
	return &AdminHandler{settings: settings, manual: manual, sched: sched, loc: loc}
}

// ListSettings returns the settings of every game.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(settings))
	for _, s := range settings {
		response = append(response, settingsJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": response})
}

type updateSettingsRequest struct {
	TargetPayoutPercent *int  `json:"target_payout_percent" binding:"required"`
	Enabled             *bool `json:"enabled" binding:"required"`
}

// UpdateSettings stores a game's target payout percent and enabled flag.
// Takes effect from the next draw cycle; in-flight cycles keep their
// snapshot.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	variant := model.GameVariant(c.Param("variant"))

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	settings, err := h.settings.Upsert(c.Request.Context(), variant, *req.TargetPayoutPercent, *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().
		Str("variant", string(variant)).
		Int("target_payout_percent", settings.TargetPayoutPercent).
		Bool("enabled", settings.Enabled).
		Msg("Game settings updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settingsJSON(settings)})
}

type manualOutcomeRequest struct {
	Variant   string            `json:"variant" binding:"required"`
	DrawDate  string            `json:"draw_date" binding:"required"`
	DrawTime  string            `json:"draw_time" binding:"required"`
	Outcomes  map[string]string `json:"outcomes" binding:"required"`
	CreatedBy string            `json:"created_by" binding:"required"`
}

// SetManualOutcome stores an operator override for an upcoming draw. The
// engine consumes it at most once when that slot's cycle runs.
func (h *AdminHandler) SetManualOutcome(c *gin.Context) {
	var req manualOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.DrawDate, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw_date, expected YYYY-MM-DD"})
		return
	}

	slot := model.DrawSlot{
		Variant:  model.GameVariant(req.Variant),
		DrawDate: date,
		DrawTime: req.DrawTime,
	}
	if err := h.manual.Upsert(c.Request.Context(), slot, req.Outcomes, req.CreatedBy); err != nil {
		respondError(c, err)
		return
	}

	log.Info().
		Str("slot", slot.Key()).
		Str("created_by", req.CreatedBy).
		Msg("Manual outcome staged")
	c.JSON(http.StatusOK, gin.H{"success": true, "slot": slot.Key()})
}

type triggerDrawRequest struct {
	Variant string `json:"variant" binding:"required"`
}

// TriggerDraw runs a draw cycle for the variant's current slot immediately.
func (h *AdminHandler) TriggerDraw(c *gin.Context) {
	var req triggerDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := h.sched.TriggerNow(c.Request.Context(), model.GameVariant(req.Variant))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"variant":   result.Slot.Variant,
			"draw_date": result.Slot.DrawDate.Format("2006-01-02"),
			"draw_time": result.Slot.DrawTime,
			"session":   result.Slot.Session,
			"outcome":   result.Outcome,
			"summary":   result.Summary,
		},
	})
}

func settingsJSON(s model.GameSettings) gin.H {
	return gin.H{
		"variant":               s.Variant,
		"target_payout_percent": s.TargetPayoutPercent,
		"enabled":               s.Enabled,
		"updated_at":            s.UpdatedAt,
	}
}
