package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishpw/discount-app/internal/service"
	"github.com/girishpw/discount-app/pkg/response"
)

// CatalogHandler exposes branch, card and pricing lookups for the form.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Branches godoc
// @Summary List branches
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /branches [get]
// @Security BearerAuth
func (h *CatalogHandler) Branches(c *gin.Context) {
	branches, err := h.service.Branches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branches, nil)
}

// Cards godoc
// @Summary List cards for a branch
// @Tags Catalog
// @Produce json
// @Param branch path string true "Branch name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cards/{branch} [get]
// @Security BearerAuth
func (h *CatalogHandler) Cards(c *gin.Context) {
	cards, err := h.service.Cards(c.Request.Context(), c.Param("branch"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, nil)
}

// Pricing godoc
// @Summary Get pricing for a branch and card
// @Description Returns null fields for an unknown combination
// @Tags Catalog
// @Produce json
// @Param branch path string true "Branch name"
// @Param card path string true "Card name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mrp/{branch}/{card} [get]
// @Security BearerAuth
func (h *CatalogHandler) Pricing(c *gin.Context) {
	pricing, err := h.service.Pricing(c.Request.Context(), c.Param("branch"), c.Param("card"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pricing, nil)
}
