package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/skinopsis/prescription-api/internal/models"
)

// Pattern battery for the deterministic fallback strategy. Each pattern is
// independent and order-insensitive against the full transcript.
var (
	rePatientName     = regexp.MustCompile(`(?i)patient\s+is\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`)
	reAge             = regexp.MustCompile(`(?i)(\d{1,3})[-\s]*year[-\s]*old`)
	reFemale          = regexp.MustCompile(`(?i)\bfemale\b`)
	reMale            = regexp.MustCompile(`(?i)\bmale\b`)
	reDiagnosis       = regexp.MustCompile(`(?i)presenting\s+with\s+([^.]+?)\.`)
	reSymptomDuration = regexp.MustCompile(`(?i)(?:for\s+)?(\d+\s+(?:days?|weeks?|months?))`)
	reSymptoms        = regexp.MustCompile(`(?i)(?:presenting\s+)?symptoms\s+include\s+([^.]+?)\.`)
	reNoAllergies     = regexp.MustCompile(`(?i)no\s+known\s+allergies`)
	reAllergicTo      = regexp.MustCompile(`(?i)allergic\s+to\s+([^.]+)`)
	reCurrentMeds     = regexp.MustCompile(`(?i)currently\s+taking\s+([^.]+?)\.`)
	reNoPastHistory   = regexp.MustCompile(`(?i)no\s+significant\s+past\s+medical\s+history`)
	reMedication      = regexp.MustCompile(`(?i)(?:prescribing|prescribe)\s+([^.]+?)(?:\s+to\s+be\s+taken\s+([^.]+?))?\.`)
	reFollowUp        = regexp.MustCompile(`(?i)follow\s+up\s+([^.]+?)\.`)
	reReturn          = regexp.MustCompile(`(?i)return\s+([^.]+?)\.`)
	reListSplit       = regexp.MustCompile(`,\s*|\s+and\s+`)
)

// regexExtractor is the always-available baseline strategy.
type regexExtractor struct{}

func (e *regexExtractor) Name() string { return "regex" }

func (e *regexExtractor) Extract(ctx context.Context, transcript string) (models.PrescriptionData, []string) {
	data := models.PrescriptionData{
		PatientName:        extractGroup(rePatientName, transcript),
		AgeYears:           extractGroup(reAge, transcript),
		Sex:                extractSex(transcript),
		Diagnosis:          titleCase(extractGroup(reDiagnosis, transcript)),
		SymptomDuration:    extractGroup(reSymptomDuration, transcript),
		PresentingSymptoms: extractSymptoms(transcript),
		Allergies:          extractAllergies(transcript),
		CurrentMedications: extractGroup(reCurrentMeds, transcript),
		PastMedicalHistory: extractPastHistory(transcript),
		Medications:        extractMedications(transcript),
		FollowupText:       extractFollowup(transcript),
		Date:               time.Now().Format("2006-01-02"),
	}

	// A record without a patient name or diagnosis is worse than an
	// obviously fake one; discard the whole partial result.
	if data.PatientName == "" || data.Diagnosis == "" {
		return demoPrescriptionData(), []string{"Using demo data - regex extraction incomplete"}
	}

	return data, []string{}
}

func extractGroup(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// extractSex tests the female pattern first; the first whole-word match
// wins. A known weak heuristic kept deliberately.
func extractSex(text string) string {
	if reFemale.MatchString(text) {
		return "Female"
	}
	if reMale.MatchString(text) {
		return "Male"
	}
	return ""
}

func extractSymptoms(text string) []string {
	raw := extractGroup(reSymptoms, text)
	if raw == "" {
		return []string{}
	}
	parts := reListSplit.Split(raw, -1)
	symptoms := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symptoms = append(symptoms, titleCase(trimmed))
		}
	}
	return symptoms
}

func extractAllergies(text string) string {
	if reNoAllergies.MatchString(text) {
		return "No known allergies"
	}
	return extractGroup(reAllergicTo, text)
}

func extractPastHistory(text string) string {
	if reNoPastHistory.MatchString(text) {
		return "No significant past medical history"
	}
	return ""
}

func extractMedications(text string) []models.Medication {
	match := reMedication.FindStringSubmatch(text)
	if match == nil {
		return []models.Medication{}
	}

	instructions := []string{}
	if match[2] != "" {
		for _, part := range reListSplit.Split(match[2], -1) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				instructions = append(instructions, capitalize(trimmed))
			}
		}
	}

	return []models.Medication{{
		Title:        titleCase(strings.TrimSpace(match[1])),
		Instructions: instructions,
	}}
}

func extractFollowup(text string) string {
	parts := []string{}
	if followUp := extractGroup(reFollowUp, text); followUp != "" {
		parts = append(parts, followUp)
	}
	if ret := extractGroup(reReturn, text); ret != "" {
		parts = append(parts, "Return "+ret)
	}
	return strings.Join(parts, ". ")
}

// titleCase uppercases every letter that follows a non-letter and lowercases
// the rest, so "acute sinusitis" becomes "Acute Sinusitis" and
// "amoxicillin 500mg" becomes "Amoxicillin 500Mg".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// capitalize uppercases the first rune and lowercases the remainder.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteRune(unicode.ToUpper(runes[0]))
	for _, r := range runes[1:] {
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
