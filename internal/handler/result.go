package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"numbers-lottery/internal/model"
	"numbers-lottery/internal/repository"
)

// ResultHandler serves published draw outcomes.
type ResultHandler struct {
	results *repository.ResultRepository
	loc     *time.Location
}

// NewResultHandler creates a new ResultHandler instance.
func NewResultHandler(results *repository.ResultRepository, loc *time.Location) *ResultHandler {
	return &ResultHandler{results: results, loc: loc}
}

// ListLatest returns a variant's most recent outcomes.
func (h *ResultHandler) ListLatest(c *gin.Context) {
	variant, ok := parseVariant(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	outcomes, err := h.results.ListLatest(c.Request.Context(), variant, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"outcomes": outcomesJSON(outcomes),
	})
}

// ListByDate returns all of a variant's outcomes for one calendar day.
func (h *ResultHandler) ListByDate(c *gin.Context) {
	variant, ok := parseVariant(c)
	if !ok {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	outcomes, err := h.results.ListByDate(c.Request.Context(), variant, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"date":     date.Format("2006-01-02"),
		"outcomes": outcomesJSON(outcomes),
	})
}

func parseVariant(c *gin.Context) (model.GameVariant, bool) {
	variant := model.GameVariant(c.Query("variant"))
	for _, v := range model.AllVariants() {
		if variant == v {
			return variant, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown variant"})
	return "", false
}

func outcomesJSON(outcomes []model.DrawOutcome) []gin.H {
	response := make([]gin.H, 0, len(outcomes))
	for _, o := range outcomes {
		response = append(response, gin.H{
			"variant":   o.Variant,
			"draw_date": o.DrawDate.Format("2006-01-02"),
			"draw_time": o.DrawTime,
			"session":   o.Session,
			"unit":      o.Unit,
			"outcome":   o.Outcome,
		})
	}
	return response
}
