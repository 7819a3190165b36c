package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinopsis/prescription-api/internal/service"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
	"github.com/skinopsis/prescription-api/pkg/response"
)

type registerService interface {
	Export(ctx context.Context, format string) (*service.ExportResult, error)
}

// ExportHandler serves register downloads.
type ExportHandler struct {
	service registerService
	enabled bool
}

// NewExportHandler builds a new handler. When disabled the endpoint answers
// with 501 so the route shape stays stable across deployments.
func NewExportHandler(service registerService, enabled bool) *ExportHandler {
	return &ExportHandler{service: service, enabled: enabled}
}

// Export godoc
// @Summary Download the prescription register
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /prescriptions/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotImplemented, "register export is disabled"))
		return
	}

	result, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
