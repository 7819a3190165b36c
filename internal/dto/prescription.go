package dto

import (
	"time"

	"github.com/skinopsis/prescription-api/internal/models"
)

// CreatePrescriptionRequest accepts a transcript submitted as JSON. The
// form-encoded variant (transcript + optional audio upload) is read directly
// from the multipart form in the handler.
type CreatePrescriptionRequest struct {
	Transcript string `json:"transcript"`
}

// RenderRequest carries edited structured data for a preview re-render.
type RenderRequest struct {
	StructuredData models.PrescriptionData `json:"structured_data" binding:"required"`
}

// PrescriptionResponse is returned from create.
type PrescriptionResponse struct {
	ID             string                  `json:"id"`
	Warnings       []string                `json:"warnings"`
	PreviewPDFURL  string                  `json:"preview_pdf_url"`
	StructuredData models.PrescriptionData `json:"structured_data"`
}

// RenderResponse is returned from a preview re-render.
type RenderResponse struct {
	PreviewPDFURL  string                  `json:"preview_pdf_url"`
	StructuredData models.PrescriptionData `json:"structured_data"`
}

// ApproveResponse is returned from approve, including repeat calls.
type ApproveResponse struct {
	Message     string `json:"message"`
	FinalPDFURL string `json:"final_pdf_url"`
}

// PrescriptionDetail is the full read-side view of a record.
type PrescriptionDetail struct {
	ID             string                    `json:"id"`
	Status         models.PrescriptionStatus `json:"status"`
	StructuredData models.PrescriptionData   `json:"structured_data"`
	Warnings       []string                  `json:"warnings"`
	CreatedAt      time.Time                 `json:"created_at"`
	ApprovedAt     *time.Time                `json:"approved_at,omitempty"`
	PreviewPDFURL  string                    `json:"preview_pdf_url"`
	FinalPDFURL    string                    `json:"final_pdf_url"`
}

// ListPrescriptionsQuery bounds the list endpoint.
type ListPrescriptionsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AuditLogResponse wraps the append-only audit trail of one record.
type AuditLogResponse struct {
	AuditLog []models.AuditEntry `json:"audit_log"`
}

// HealthResponse reports readiness of the pipeline collaborators.
type HealthResponse struct {
	Status             string                    `json:"status"`
	Services           map[string]string         `json:"services"`
	TemplateValidation models.TemplateValidation `json:"template_validation"`
}
