package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appsettings "github.com/pharmaops/backend/internal/application/settings"
	"github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/interfaces/http/middleware"
)

// SettingsHandler handles pharmacy settings API endpoints
type SettingsHandler struct {
	BaseHandler
	settingsService *appsettings.Service
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *appsettings.Service) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// PharmacySettingsResponse represents pharmacy settings in API responses
// @name HandlerPharmacySettingsResponse
type PharmacySettingsResponse struct {
	PharmacyID       string `json:"pharmacy_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShortCodeEnabled bool   `json:"short_code_enabled" example:"true"`
	HoldTTLMinutes   int    `json:"hold_ttl_minutes" example:"15"`
	UpdatedAt        string `json:"updated_at" example:"2026-01-23T12:00:00Z"`
}

// UpdateSettingsRequest represents a request to update pharmacy settings
// @Description Request body for updating reconciliation settings
type UpdateSettingsRequest struct {
	ShortCodeEnabled bool `json:"short_code_enabled"`
	HoldTTLMinutes   int  `json:"hold_ttl_minutes" binding:"required,min=1,max=1440"`
}

func newPharmacySettingsResponse(s *settings.PharmacySettings) PharmacySettingsResponse {
	return PharmacySettingsResponse{
		PharmacyID:       s.PharmacyID.String(),
		ShortCodeEnabled: s.ShortCodeEnabled,
		HoldTTLMinutes:   s.HoldTTLMinutes,
		UpdatedAt:        s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// GetSettings godoc
// @ID           getPharmacySettings
// @Summary      Get the caller's pharmacy settings
// @Description  Returns the effective reconciliation settings, falling back to platform defaults
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[PharmacySettingsResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	tenantCtx, ok := middleware.GetTenantContext(c)
	if !ok || tenantCtx.PharmacyID == nil {
		h.Unauthorized(c, "Pharmacy-bound authentication required")
		return
	}

	current, err := h.settingsService.ForPharmacy(c.Request.Context(), *tenantCtx.PharmacyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newPharmacySettingsResponse(current))
}

// UpdateSettings godoc
// @ID           updatePharmacySettings
// @Summary      Update the caller's pharmacy settings
// @Description  Sets the expiry toggle and hold TTL for the caller's pharmacy
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateSettingsRequest true "Settings to apply"
// @Success      200 {object} APIResponse[PharmacySettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	tenantCtx, ok := middleware.GetTenantContext(c)
	if !ok || tenantCtx.PharmacyID == nil {
		h.Unauthorized(c, "Pharmacy-bound authentication required")
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := settings.NewPharmacySettings(*tenantCtx.PharmacyID, req.ShortCodeEnabled, req.HoldTTLMinutes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.settingsService.Update(c.Request.Context(), updated); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newPharmacySettingsResponse(updated))
}

// RegisterRoutes registers all settings routes
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/settings")
	{
		group.GET("", h.GetSettings)
		group.PUT("", h.UpdateSettings)
	}
}
