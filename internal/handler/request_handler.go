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

// RequestHandler wires HTTP endpoints to the submission service.
type RequestHandler struct {
	service   *service.RequestService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewRequestHandler creates a new handler.
func NewRequestHandler(svc *service.RequestService, dashboard *service.DashboardService, metrics *service.MetricsService) *RequestHandler {
	return &RequestHandler{service: svc, dashboard: dashboard, metrics: metrics}
}

// Submit godoc
// @Summary Submit a discount request
// @Description Validate and file a new discount request for approval
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests [post]
// @Security BearerAuth
func (h *RequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	created, err := h.service.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSubmission()
	if h.dashboard != nil {
		h.dashboard.Invalidate(context.WithoutCancel(c.Request.Context()))
	}
	response.Created(c, created)
}
