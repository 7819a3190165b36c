package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completionClientStub struct {
	response string
	err      error
	calls    int
}

func (s *completionClientStub) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const sinusitisTranscript = "Patient is John Smith, a 45-year-old male presenting with acute sinusitis. " +
	"Symptoms include nasal congestion, facial pain and headache. " +
	"No known allergies. No significant past medical history. " +
	"Prescribing amoxicillin 500mg to be taken twice daily. " +
	"Follow up in 7 days if symptoms persist. Return immediately if fever develops."

func TestExtractEmptyTranscriptFallsBackToDemo(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())

	data, warnings := svc.Extract(context.Background(), "   ")

	assert.Equal(t, demoPrescriptionData().PatientName, data.PatientName)
	assert.Equal(t, []string{"Empty transcript provided"}, warnings)
}

func TestRegexExtractionCompleteTranscript(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())

	data, warnings := svc.Extract(context.Background(), sinusitisTranscript)

	assert.Empty(t, warnings)
	assert.Equal(t, "John Smith", data.PatientName)
	assert.Equal(t, "45", data.AgeYears)
	assert.Equal(t, "Male", data.Sex)
	assert.Equal(t, "Acute Sinusitis", data.Diagnosis)
	assert.Equal(t, "No known allergies", data.Allergies)
	assert.Equal(t, "No significant past medical history", data.PastMedicalHistory)
	assert.Equal(t, []string{"Nasal Congestion", "Facial Pain", "Headache"}, data.PresentingSymptoms)

	require.Len(t, data.Medications, 1)
	assert.Equal(t, "Amoxicillin 500Mg", data.Medications[0].Title)
	assert.Equal(t, []string{"Twice daily"}, data.Medications[0].Instructions)

	assert.Contains(t, data.FollowupText, "7 days")
	assert.Contains(t, data.FollowupText, "Return immediately")
}

func TestRegexExtractionIncompleteDiscardsPartialResult(t *testing.T) {
	svc := NewExtractionService(nil, nil, zap.NewNop())

	// Age matches but neither patient name nor diagnosis does, so the whole
	// partial record must be discarded in favor of the demo sentinel.
	data, warnings := svc.Extract(context.Background(), "A 45-year-old male came in today.")

	assert.Equal(t, []string{"Using demo data - regex extraction incomplete"}, warnings)
	assert.Equal(t, demoPrescriptionData().PatientName, data.PatientName)
	assert.Equal(t, demoPrescriptionData().Diagnosis, data.Diagnosis)
}

func TestExtractSexFemaleWinsOverEmbeddedMale(t *testing.T) {
	// "female" contains "male" as a substring; the word-boundary pattern
	// must still classify this transcript as female.
	assert.Equal(t, "Female", extractSex("a 30-year-old female presenting with cough"))
	assert.Equal(t, "Male", extractSex("a 30-year-old male presenting with cough"))
	assert.Equal(t, "", extractSex("a 30-year-old adult presenting with cough"))
}

func TestAIExtractionParsesModelResponse(t *testing.T) {
	client := &completionClientStub{response: `Here is the extraction:
{
  "patient_name": "Maria Garcia",
  "age_years": "29",
  "sex": "Female",
  "diagnosis": "Migraine",
  "presenting_symptoms": ["Throbbing headache", "Nausea"],
  "allergies": "No known allergies",
  "medications": [
    {"title": "Sumatriptan 50mg", "instructions": ["Take at onset of headache"]},
    {"title": "", "instructions": ["should be dropped"]}
  ],
  "followup_text": "Return if symptoms worsen"
}`}
	svc := NewExtractionService(client, nil, zap.NewNop())

	data, warnings := svc.Extract(context.Background(), "some transcript")

	assert.Empty(t, warnings)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "Maria Garcia", data.PatientName)
	assert.Equal(t, "Migraine", data.Diagnosis)
	assert.Equal(t, []string{"Throbbing headache", "Nausea"}, data.PresentingSymptoms)
	require.Len(t, data.Medications, 1)
	assert.Equal(t, "Sumatriptan 50mg", data.Medications[0].Title)
	assert.NotEmpty(t, data.Date)
}

func TestAIExtractionNetworkErrorFallsBackToDemo(t *testing.T) {
	client := &completionClientStub{err: errors.New("connection refused")}
	svc := NewExtractionService(client, nil, zap.NewNop())

	data, warnings := svc.Extract(context.Background(), "some transcript")

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "AI extraction failed, using demo data")
	assert.Equal(t, demoPrescriptionData().PatientName, data.PatientName)
}

func TestAIExtractionMalformedResponseFallsBackToDemo(t *testing.T) {
	client := &completionClientStub{response: "I could not process this transcript."}
	svc := NewExtractionService(client, nil, zap.NewNop())

	data, warnings := svc.Extract(context.Background(), "some transcript")

	assert.Equal(t, []string{"AI response parsing failed, using demo data"}, warnings)
	assert.Equal(t, demoPrescriptionData().PatientName, data.PatientName)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Acute Sinusitis", titleCase("acute sinusitis"))
	assert.Equal(t, "Amoxicillin 500Mg", titleCase("amoxicillin 500mg"))
	assert.Equal(t, "", titleCase(""))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Twice daily", capitalize("twice DAILY"))
	assert.Equal(t, "", capitalize(""))
}
