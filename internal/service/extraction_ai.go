package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
)

const extractionSystemPrompt = "You are a medical AI assistant specialized in extracting structured data from medical transcripts. Always respond with properly formatted JSON."

// aiExtractor asks the model for a fixed-schema JSON object and coerces the
// reply defensively. Any failure (network, parse, schema) degrades to the
// demo record with a warning; the call is never retried.
type aiExtractor struct {
	client CompletionClient
	logger *zap.Logger
}

func (e *aiExtractor) Name() string { return "ai" }

func (e *aiExtractor) Extract(ctx context.Context, transcript string) (models.PrescriptionData, []string) {
	response, err := e.client.Complete(ctx, extractionSystemPrompt, buildExtractionPrompt(transcript))
	if err != nil {
		e.logger.Error("ai extraction failed", zap.Error(err))
		return demoPrescriptionData(), []string{fmt.Sprintf("AI extraction failed, using demo data: %v", err)}
	}

	payload, err := parseModelJSON(response)
	if err != nil {
		e.logger.Error("ai response parsing failed", zap.Error(err))
		return demoPrescriptionData(), []string{"AI response parsing failed, using demo data"}
	}

	return coercePrescriptionData(payload), []string{}
}

func buildExtractionPrompt(transcript string) string {
	return fmt.Sprintf(`
Analyze this medical transcript and extract structured data as JSON:

TRANSCRIPT:
%s

Return JSON with this exact structure:
{
    "patient_name": "Patient's full name (empty string if not found)",
    "age_years": "Age in years (empty string if not found)",
    "sex": "Male/Female/Other (empty string if not found)",
    "diagnosis": "Primary diagnosis (empty string if not found)",
    "symptom_duration": "Duration of symptoms (empty string if not found)",
    "presenting_symptoms": ["List of current symptoms"],
    "allergies": "Known allergies or 'No known allergies' (empty string if not found)",
    "current_medications": "Current medications (empty string if not found)",
    "past_medical_history": "Past medical history (empty string if not found)",
    "medications": [
        {
            "title": "Medication name and dosage",
            "instructions": ["List of instructions"]
        }
    ],
    "followup_text": "Follow-up instructions (empty string if not found)"
}

IMPORTANT:
- Extract only information explicitly mentioned
- Use professional medical language
- Separate medication names from instructions
- Return only the JSON object
`, transcript)
}

// parseModelJSON slices the substring between the first '{' and the last
// '}' so leading or trailing commentary from the model is tolerated.
func parseModelJSON(response string) (map[string]interface{}, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	payload := map[string]interface{}{}
	if err := json.Unmarshal([]byte(response[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return payload, nil
}

// coercePrescriptionData maps the loosely-typed model payload onto the
// record, treating absent or mistyped fields as empty. Medication entries
// without a title are dropped, and the date is always stamped locally.
func coercePrescriptionData(payload map[string]interface{}) models.PrescriptionData {
	return models.PrescriptionData{
		PatientName:        coerceString(payload["patient_name"]),
		AgeYears:           coerceString(payload["age_years"]),
		Sex:                coerceString(payload["sex"]),
		Diagnosis:          coerceString(payload["diagnosis"]),
		SymptomDuration:    coerceString(payload["symptom_duration"]),
		PresentingSymptoms: coerceStringList(payload["presenting_symptoms"]),
		Allergies:          coerceString(payload["allergies"]),
		CurrentMedications: coerceString(payload["current_medications"]),
		PastMedicalHistory: coerceString(payload["past_medical_history"]),
		Medications:        coerceMedications(payload["medications"]),
		FollowupText:       coerceString(payload["followup_text"]),
		Date:               time.Now().Format("2006-01-02"),
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func coerceStringList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func coerceMedications(value interface{}) []models.Medication {
	items, ok := value.([]interface{})
	if !ok {
		return []models.Medication{}
	}
	medications := make([]models.Medication, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title := coerceString(entry["title"])
		if title == "" {
			continue
		}
		medications = append(medications, models.Medication{
			Title:        title,
			Instructions: coerceStringList(entry["instructions"]),
		})
	}
	return medications
}
