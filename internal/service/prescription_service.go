package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/dto"
	"github.com/skinopsis/prescription-api/internal/models"
	"github.com/skinopsis/prescription-api/internal/repository"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
)

const (
	defaultListLimit = 50
	listCacheKey     = "prescriptions:list"
)

// transcriptExtractor produces structured data plus warnings from free text.
type transcriptExtractor interface {
	Extract(ctx context.Context, transcript string) (models.PrescriptionData, []string)
}

// documentGenerator renders and converts prescription artifacts.
type documentGenerator interface {
	GeneratePrescriptionPDF(ctx context.Context, data models.PrescriptionData, baseName string) (string, string, error)
	ValidateTemplate() models.TemplateValidation
}

// prescriptionStore is the persistence surface the service depends on.
type prescriptionStore interface {
	Save(ctx context.Context, record *models.PrescriptionRecord) error
	Get(ctx context.Context, id string) (*models.PrescriptionRecord, error)
	Update(ctx context.Context, id string, updates repository.UpdateFields) (*models.PrescriptionRecord, error)
	Approve(ctx context.Context, id, finalPath string) (*models.PrescriptionRecord, error)
	List(ctx context.Context, limit int) ([]models.PrescriptionSummary, error)
	AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error)
}

// PrescriptionService orchestrates the transcript-to-document pipeline and
// the record lifecycle around it.
type PrescriptionService struct {
	extractor transcriptExtractor
	documents documentGenerator
	store     prescriptionStore
	cache     *CacheService
	logger    *zap.Logger
}

// NewPrescriptionService wires the pipeline collaborators together.
func NewPrescriptionService(extractor transcriptExtractor, documents documentGenerator, store prescriptionStore, cache *CacheService, logger *zap.Logger) *PrescriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrescriptionService{
		extractor: extractor,
		documents: documents,
		store:     store,
		cache:     cache,
		logger:    logger,
	}
}

// Create runs extraction, attempts a preview render, and persists the new
// draft. A failed preview render never fails creation; it is reported as a
// warning on the stored record instead.
func (s *PrescriptionService) Create(ctx context.Context, transcript string) (*dto.PrescriptionResponse, error) {
	data, warnings := s.extractor.Extract(ctx, transcript)
	if warnings == nil {
		warnings = []string{}
	}

	record := models.PrescriptionRecord{
		ID:              uuid.NewString(),
		Status:          models.StatusDraft,
		StructuredData:  data,
		RawTranscript:   transcript,
		CleanTranscript: transcript,
		Warnings:        warnings,
		CreatedAt:       time.Now().UTC(),
	}

	docxPath, pdfPath, err := s.documents.GeneratePrescriptionPDF(ctx, data, record.ID+"_preview")
	if err != nil {
		s.logger.Warn("preview generation failed at create",
			zap.String("id", record.ID), zap.Error(err))
		record.Warnings = append(record.Warnings, fmt.Sprintf("Document generation warning: %v", err))
	} else {
		record.DocxPath = docxPath
		record.PreviewPDFPath = pdfPath
	}

	if err := s.store.Save(ctx, &record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist prescription")
	}
	s.invalidateListCache(ctx)

	return &dto.PrescriptionResponse{
		ID:             record.ID,
		Warnings:       record.Warnings,
		PreviewPDFURL:  publicDataURL(record.PreviewPDFPath),
		StructuredData: record.StructuredData,
	}, nil
}

// Render replaces the draft's structured data and regenerates the preview.
// Approved records are immutable; render on one is a conflict. Render
// failures here are fatal, unlike at create time, because the caller asked
// for exactly this artifact.
func (s *PrescriptionService) Render(ctx context.Context, id string, data models.PrescriptionData) (*dto.RenderResponse, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if record.Status == models.StatusApproved {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "prescription is approved and can no longer be edited")
	}

	docxPath, pdfPath, err := s.documents.GeneratePrescriptionPDF(ctx, data, id+"_preview")
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, repository.UpdateFields{
		StructuredData: &data,
		PreviewPDFPath: &pdfPath,
		DocxPath:       &docxPath,
	})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	s.invalidateListCache(ctx)

	return &dto.RenderResponse{
		PreviewPDFURL:  publicDataURL(updated.PreviewPDFPath),
		StructuredData: updated.StructuredData,
	}, nil
}

// Approve finalizes the record. The first call generates the final artifact
// and flips the status; repeat calls return the existing final document
// without regenerating anything.
func (s *PrescriptionService) Approve(ctx context.Context, id string) (*dto.ApproveResponse, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	if record.Status == models.StatusApproved {
		return &dto.ApproveResponse{
			Message:     "Prescription already approved",
			FinalPDFURL: publicDataURL(record.FinalPDFPath),
		}, nil
	}

	_, pdfPath, err := s.documents.GeneratePrescriptionPDF(ctx, record.StructuredData, id+"_final")
	if err != nil {
		return nil, err
	}

	approved, err := s.store.Approve(ctx, id, pdfPath)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	s.invalidateListCache(ctx)

	return &dto.ApproveResponse{
		Message:     "Prescription approved",
		FinalPDFURL: publicDataURL(approved.FinalPDFPath),
	}, nil
}

// Get returns the full read-side view of one record.
func (s *PrescriptionService) Get(ctx context.Context, id string) (*dto.PrescriptionDetail, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return &dto.PrescriptionDetail{
		ID:             record.ID,
		Status:         record.Status,
		StructuredData: record.StructuredData,
		Warnings:       record.Warnings,
		CreatedAt:      record.CreatedAt,
		ApprovedAt:     record.ApprovedAt,
		PreviewPDFURL:  publicDataURL(record.PreviewPDFPath),
		FinalPDFURL:    publicDataURL(record.FinalPDFPath),
	}, nil
}

// List returns record summaries newest-first, served from cache when
// enabled. Cache failures degrade to a store read.
func (s *PrescriptionService) List(ctx context.Context, limit int) ([]models.PrescriptionSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	cacheKey := fmt.Sprintf("%s:%d", listCacheKey, limit)
	if s.cache.Enabled() {
		var cached []models.PrescriptionSummary
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	summaries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prescriptions")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
			s.logger.Warn("list cache write failed", zap.Error(err))
		}
	}
	return summaries, nil
}

// AuditLog returns the append-only trail for a record. Unknown ids produce
// an empty trail.
func (s *PrescriptionService) AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error) {
	entries, err := s.store.AuditLog(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read audit log")
	}
	return entries, nil
}

// Health reports readiness of the pipeline collaborators.
func (s *PrescriptionService) Health(ctx context.Context) dto.HealthResponse {
	validation := s.documents.ValidateTemplate()

	services := map[string]string{
		"storage":   "ok",
		"documents": "ok",
	}
	status := "ok"
	if !validation.Valid {
		services["documents"] = "degraded"
		status = "degraded"
	}
	if _, err := s.store.List(ctx, 1); err != nil {
		services["storage"] = "degraded"
		status = "degraded"
	}

	return dto.HealthResponse{
		Status:             status,
		Services:           services,
		TemplateValidation: validation,
	}
}

func (s *PrescriptionService) invalidateListCache(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, listCacheKey+":*"); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}

func (s *PrescriptionService) mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrPrescriptionNotFound) {
		return appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "prescription not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "prescription storage failure")
}

// publicDataURL maps a stored artifact path onto the static /data mount.
// Empty paths map to empty URLs so absent artifacts stay absent in views.
func publicDataURL(artifactPath string) string {
	if artifactPath == "" {
		return ""
	}
	return "/data/" + path.Base(artifactPath)
}
