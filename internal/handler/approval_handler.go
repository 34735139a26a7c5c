package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishpw/discount-app/internal/dto"
	"github.com/girishpw/discount-app/internal/service"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
	"github.com/girishpw/discount-app/pkg/response"
)

// ApprovalHandler wires HTTP endpoints to the approval service.
type ApprovalHandler struct {
	service   *service.ApprovalService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService, dashboard *service.DashboardService, metrics *service.MetricsService) *ApprovalHandler {
	return &ApprovalHandler{service: svc, dashboard: dashboard, metrics: metrics}
}

// ListPending godoc
// @Summary List pending requests
// @Description Requests awaiting the caller's approval level, scoped to their branches
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /requests/pending [get]
// @Security BearerAuth
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListPending(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, map[string]interface{}{"count": len(requests)})
}

// Decide godoc
// @Summary Approve or reject a request
// @Description Apply a decision to a pending request at the caller's level
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/decision [post]
// @Security BearerAuth
func (h *ApprovalHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	updated, err := h.service.Decide(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordDecision(string(claims.ApproverLevel), req.Action)
	if h.dashboard != nil {
		h.dashboard.Invalidate(context.WithoutCancel(c.Request.Context()))
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
