package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skinopsis/prescription-api/internal/dto"
	"github.com/skinopsis/prescription-api/internal/models"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
	"github.com/skinopsis/prescription-api/pkg/response"
)

type prescriptionService interface {
	Create(ctx context.Context, transcript string) (*dto.PrescriptionResponse, error)
	Render(ctx context.Context, id string, data models.PrescriptionData) (*dto.RenderResponse, error)
	Approve(ctx context.Context, id string) (*dto.ApproveResponse, error)
	Get(ctx context.Context, id string) (*dto.PrescriptionDetail, error)
	List(ctx context.Context, limit int) ([]models.PrescriptionSummary, error)
	AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error)
}

// PrescriptionHandler exposes the prescription lifecycle endpoints.
type PrescriptionHandler struct {
	service prescriptionService
}

// NewPrescriptionHandler builds a new handler.
func NewPrescriptionHandler(service prescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{service: service}
}

// Create godoc
// @Summary Create a prescription from a transcript
// @Tags Prescriptions
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body dto.CreatePrescriptionRequest false "Transcript payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 501 {object} response.Envelope
// @Router /prescriptions [post]
func (h *PrescriptionHandler) Create(c *gin.Context) {
	transcript, err := h.readTranscript(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Create(c.Request.Context(), transcript)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// readTranscript accepts either a JSON body or a multipart form. An audio
// upload is recognised but not yet transcribed; the caller gets an explicit
// 501 rather than a silently dropped file.
func (h *PrescriptionHandler) readTranscript(c *gin.Context) (string, error) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") || strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if _, err := c.FormFile("audio_file"); err == nil {
			return "", appErrors.Clone(appErrors.ErrNotImplemented, "audio transcription temporarily disabled")
		}
		transcript := strings.TrimSpace(c.PostForm("transcript"))
		if transcript == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "either transcript or audio_file must be provided")
		}
		return transcript, nil
	}

	var req dto.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prescription payload")
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "either transcript or audio_file must be provided")
	}
	return req.Transcript, nil
}

// Render godoc
// @Summary Re-render a draft with edited structured data
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Param id path string true "Prescription id"
// @Param payload body dto.RenderRequest true "Edited structured data"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /prescriptions/{id}/render [post]
func (h *PrescriptionHandler) Render(c *gin.Context) {
	var req dto.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid render payload"))
		return
	}

	result, err := h.service.Render(c.Request.Context(), c.Param("id"), req.StructuredData)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Approve godoc
// @Summary Approve a prescription and produce the final document
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Prescription id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prescriptions/{id}/approve [post]
func (h *PrescriptionHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get a prescription by id
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Prescription id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prescriptions/{id} [get]
func (h *PrescriptionHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List prescriptions newest-first
// @Tags Prescriptions
// @Produce json
// @Param limit query int false "Maximum rows returned (default 50)"
// @Success 200 {object} response.Envelope
// @Router /prescriptions [get]
func (h *PrescriptionHandler) List(c *gin.Context) {
	var query dto.ListPrescriptionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}

	summaries, err := h.service.List(c.Request.Context(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// AuditLog godoc
// @Summary Get the append-only audit trail of a prescription
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Prescription id"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/{id}/audit [get]
func (h *PrescriptionHandler) AuditLog(c *gin.Context) {
	entries, err := h.service.AuditLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AuditLogResponse{AuditLog: entries}, nil)
}
