package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
	"github.com/skinopsis/prescription-api/pkg/export"
)

var registerHeaders = []string{"ID", "Patient", "Status", "Created At", "Approved At"}

// ExportResult carries rendered register bytes plus transport metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Payload     []byte
}

// RegisterService renders the prescription register as a downloadable
// dataset. It reads through the same store the API serves from.
type RegisterService struct {
	store  prescriptionStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewRegisterService constructs the register exporter.
func NewRegisterService(store prescriptionStore, logger *zap.Logger) *RegisterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegisterService{
		store:  store,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Export renders the full register in the requested format, "csv" or "pdf".
func (s *RegisterService) Export(ctx context.Context, format string) (*ExportResult, error) {
	summaries, err := s.store.List(ctx, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prescription register")
	}

	dataset := buildRegisterDataset(summaries)

	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv register")
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    "prescriptions.csv",
			Payload:     payload,
		}, nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Prescription Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf register")
		}
		return &ExportResult{
			ContentType: "application/pdf",
			Filename:    "prescriptions.pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildRegisterDataset(summaries []models.PrescriptionSummary) export.Dataset {
	rows := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		approvedAt := ""
		if summary.ApprovedAt != nil {
			approvedAt = summary.ApprovedAt.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, map[string]string{
			"ID":          summary.ID,
			"Patient":     summary.PatientName,
			"Status":      string(summary.Status),
			"Created At":  summary.CreatedAt.UTC().Format("2006-01-02 15:04"),
			"Approved At": approvedAt,
		})
	}
	return export.Dataset{Headers: registerHeaders, Rows: rows}
}
