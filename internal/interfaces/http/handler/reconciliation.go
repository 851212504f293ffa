package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appreconciliation "github.com/pharmaops/backend/internal/application/reconciliation"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
	"github.com/pharmaops/backend/internal/interfaces/http/middleware"
)

// ReconciliationHandler handles expiry reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	cleanupService *appreconciliation.CleanupService
	statsService   *appreconciliation.StatsService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	cleanupService *appreconciliation.CleanupService,
	statsService *appreconciliation.StatsService,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		cleanupService: cleanupService,
		statsService:   statsService,
	}
}

// RunSummaryResponse represents the outcome of one cleanup sweep
// @name HandlerRunSummaryResponse
type RunSummaryResponse struct {
	RestoredCount int    `json:"restored_count" example:"12"`
	TotalValue    string `json:"total_value" example:"184.50"`
	SkippedCount  int    `json:"skipped_count" example:"1"`
	ProcessedAt   string `json:"processed_at" example:"2026-01-23T12:00:00Z"`
}

// ReconciliationStatsResponse represents the reconciliation statistics view
// @name HandlerReconciliationStatsResponse
type ReconciliationStatsResponse struct {
	CurrentlyExpiredCount   int     `json:"currently_expired_count" example:"3"`
	CurrentlyExpiredValue   string  `json:"currently_expired_value" example:"42.00"`
	OldestExpiredAt         *string `json:"oldest_expired_at,omitempty" example:"2026-01-23T11:30:00Z"`
	HistoricalTotalRestored int64   `json:"historical_total_restored" example:"240"`
	HistoricalTotalValue    string  `json:"historical_total_value" example:"3150.75"`
	LastRunAt               *string `json:"last_run_at,omitempty" example:"2026-01-23T11:55:00Z"`
}

// RunCleanup godoc
// @ID           runReconciliationCleanup
// @Summary      Trigger a manual cleanup sweep
// @Description  Reclaims stock held by expired pending transactions within the caller's data scope
// @Tags         reconciliation
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[RunSummaryResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /reconciliation/runs [post]
func (h *ReconciliationHandler) RunCleanup(c *gin.Context) {
	tenantCtx, ok := middleware.GetTenantContext(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	triggeredBy := tenantCtx.UserID
	summary, err := h.cleanupService.Run(c.Request.Context(), appreconciliation.RunInput{
		Mode:        reconciliation.RunModeManual,
		TriggeredBy: &triggeredBy,
		Tenant:      &tenantCtx,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RunSummaryResponse{
		RestoredCount: summary.RestoredCount,
		TotalValue:    summary.TotalValue.String(),
		SkippedCount:  summary.SkippedCount,
		ProcessedAt:   summary.ProcessedAt.UTC().Format(time.RFC3339),
	})
}

// GetStats godoc
// @ID           getReconciliationStats
// @Summary      Get reconciliation statistics
// @Description  Returns live expired-candidate figures and historical sweep totals for the caller's data scope
// @Tags         reconciliation
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[ReconciliationStatsResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /reconciliation/stats [get]
func (h *ReconciliationHandler) GetStats(c *gin.Context) {
	tenantCtx, ok := middleware.GetTenantContext(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), &tenantCtx)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := ReconciliationStatsResponse{
		CurrentlyExpiredCount:   stats.CurrentlyExpiredCount,
		CurrentlyExpiredValue:   stats.CurrentlyExpiredValue.String(),
		HistoricalTotalRestored: stats.HistoricalTotalRestored,
		HistoricalTotalValue:    stats.HistoricalTotalValue.String(),
	}
	if stats.OldestExpiredAt != nil {
		s := stats.OldestExpiredAt.UTC().Format(time.RFC3339)
		resp.OldestExpiredAt = &s
	}
	if stats.LastRunAt != nil {
		s := stats.LastRunAt.UTC().Format(time.RFC3339)
		resp.LastRunAt = &s
	}

	h.Success(c, resp)
}

// RegisterRoutes registers all reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/reconciliation")
	{
		group.POST("/runs", h.RunCleanup)
		group.GET("/stats", h.GetStats)
	}
}
