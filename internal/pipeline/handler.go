package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bibhub/internal/store"
	"bibhub/pkg/models"
)

// Handler exposes on-demand runs and the run history.
type Handler struct {
	Runner *Runner
	// Base is the context runs started over HTTP derive from, so that a
	// client disconnect does not cancel a run halfway.
	Base context.Context
}

func NewHandler(r *Runner) *Handler {
	return &Handler{Runner: r, Base: context.Background()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pipeline/run", h.run)
	rg.GET("/pipeline/runs", h.runs) // GET /pipeline/runs?limit=20
}

func (h *Handler) run(c *gin.Context) {
	res, err := h.Runner.TryRun(h.Base)
	switch {
	case errors.Is(err, ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil && res == nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case err != nil:
		if errors.Is(err, store.ErrWriteFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store write failed", "run": res.Run})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run": res.Run})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": res.Run, "geocode": res.Geocode})
}

func (h *Handler) runs(c *gin.Context) {
	if h.Runner.Runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []models.PipelineRun{}})
		return
	}
	limit := parseInt(c.Query("limit"), 20)
	runs, err := h.Runner.Runs.Runs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list runs failed"})
		return
	}
	if runs == nil {
		runs = []models.PipelineRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
