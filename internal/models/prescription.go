package models

import (
	"strings"
	"time"
)

// PrescriptionStatus captures the record lifecycle.
type PrescriptionStatus string

const (
	StatusDraft    PrescriptionStatus = "draft"
	StatusApproved PrescriptionStatus = "approved"
)

// Medication is an immutable medication entry with ordered instructions.
type Medication struct {
	Title        string   `json:"title"`
	Instructions []string `json:"instructions"`
}

// PrescriptionData is the canonical structured form of one prescription.
// Every field has a usable zero value so rendering never fails on missing
// information.
type PrescriptionData struct {
	PatientName        string       `json:"patient_name"`
	AgeYears           string       `json:"age_years"`
	Sex                string       `json:"sex"`
	Diagnosis          string       `json:"diagnosis"`
	SymptomDuration    string       `json:"symptom_duration"`
	PresentingSymptoms []string     `json:"presenting_symptoms"`
	Allergies          string       `json:"allergies"`
	CurrentMedications string       `json:"current_medications"`
	PastMedicalHistory string       `json:"past_medical_history"`
	Medications        []Medication `json:"medications"`
	FollowupText       string       `json:"followup_text"`
	Date               string       `json:"date"`
}

// TemplatePlaceholders lists every variable the DOCX template must expose.
var TemplatePlaceholders = []string{
	"patient_name",
	"age_years",
	"sex",
	"diagnosis",
	"symptom_duration",
	"presenting_symptoms_block",
	"allergies",
	"current_medications",
	"past_medical_history",
	"treatment_plan_block",
	"followup_text",
	"date",
}

// TemplateDict converts the record into template variables, computing the
// presentation blocks fresh on every call. The blocks are derived data and
// are never stored.
func (d PrescriptionData) TemplateDict() map[string]string {
	var symptomsBlock string
	if len(d.PresentingSymptoms) > 0 {
		lines := make([]string, 0, len(d.PresentingSymptoms))
		for _, symptom := range d.PresentingSymptoms {
			lines = append(lines, "• "+symptom)
		}
		symptomsBlock = strings.Join(lines, "\n")
	}

	planParts := make([]string, 0, len(d.Medications))
	for _, med := range d.Medications {
		if med.Title == "" {
			continue
		}
		parts := []string{med.Title}
		for _, instruction := range med.Instructions {
			if instruction != "" {
				parts = append(parts, "• "+instruction)
			}
		}
		planParts = append(planParts, strings.Join(parts, "\n"))
	}
	planBlock := strings.Join(planParts, "\n\n")

	date := d.Date
	if date == "" {
		date = time.Now().Format("January 2, 2006")
	}

	return map[string]string{
		"patient_name":              d.PatientName,
		"age_years":                 d.AgeYears,
		"sex":                       d.Sex,
		"diagnosis":                 d.Diagnosis,
		"symptom_duration":          d.SymptomDuration,
		"presenting_symptoms_block": symptomsBlock,
		"allergies":                 d.Allergies,
		"current_medications":       d.CurrentMedications,
		"past_medical_history":      d.PastMedicalHistory,
		"treatment_plan_block":      planBlock,
		"followup_text":             d.FollowupText,
		"date":                      date,
	}
}

// PrescriptionRecord is the stored lifecycle envelope around one
// prescription. Created in draft; approval is a one-way transition after
// which approved_at and final_pdf_path are immutable.
type PrescriptionRecord struct {
	ID              string             `json:"id"`
	Status          PrescriptionStatus `json:"status"`
	StructuredData  PrescriptionData   `json:"structured_data"`
	RawTranscript   string             `json:"raw_transcript"`
	CleanTranscript string             `json:"clean_transcript"`
	Warnings        []string           `json:"warnings"`
	CreatedAt       time.Time          `json:"created_at"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	PreviewPDFPath  string             `json:"preview_pdf_path,omitempty"`
	FinalPDFPath    string             `json:"final_pdf_path,omitempty"`
	DocxPath        string             `json:"docx_path,omitempty"`
}

// AuditEntry is one append-only snapshot of a record. Full post-mutation
// state, not a diff.
type AuditEntry struct {
	Timestamp time.Time          `json:"timestamp"`
	Data      PrescriptionRecord `json:"data"`
}

// PrescriptionSummary is the list-view projection of a record.
type PrescriptionSummary struct {
	ID          string             `json:"id"`
	PatientName string             `json:"patient_name"`
	Status      PrescriptionStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	ApprovedAt  *time.Time         `json:"approved_at,omitempty"`
}

// TemplateValidation reports whether the configured template is usable.
// Placeholder presence cannot be enumerated from the binary format, so this
// is an openability check only.
type TemplateValidation struct {
	Valid                bool     `json:"valid"`
	Message              string   `json:"message"`
	RequiredPlaceholders []string `json:"required_placeholders"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
