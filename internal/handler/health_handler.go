package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinopsis/prescription-api/internal/dto"
	"github.com/skinopsis/prescription-api/pkg/response"
)

type healthService interface {
	Health(ctx context.Context) dto.HealthResponse
}

// HealthHandler reports pipeline readiness, including template validity.
type HealthHandler struct {
	service healthService
}

// NewHealthHandler builds a new handler.
func NewHealthHandler(service healthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Health godoc
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	result := h.service.Health(c.Request.Context())
	response.JSON(c, http.StatusOK, result, nil)
}
