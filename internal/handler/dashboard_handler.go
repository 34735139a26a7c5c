package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishpw/discount-app/internal/service"
	"github.com/girishpw/discount-app/pkg/response"
)

// DashboardHandler serves the landing-page rollup.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Request counts by status plus the most recent activity
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
// @Security BearerAuth
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary := h.service.Summary(c.Request.Context())
	response.JSON(c, http.StatusOK, summary, nil)
}
