package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinopsis/prescription-api/internal/dto"
	"github.com/skinopsis/prescription-api/internal/models"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
)

type prescriptionServiceMock struct {
	createResp     *dto.PrescriptionResponse
	createErr      error
	lastTranscript string
	renderErr      error
	approveResp    *dto.ApproveResponse
	approveErr     error
	getResp        *dto.PrescriptionDetail
	getErr         error
	listResp       []models.PrescriptionSummary
	auditResp      []models.AuditEntry
}

func (m *prescriptionServiceMock) Create(ctx context.Context, transcript string) (*dto.PrescriptionResponse, error) {
	m.lastTranscript = transcript
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createResp != nil {
		return m.createResp, nil
	}
	return &dto.PrescriptionResponse{ID: "rx-1", Warnings: []string{}}, nil
}

func (m *prescriptionServiceMock) Render(ctx context.Context, id string, data models.PrescriptionData) (*dto.RenderResponse, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	return &dto.RenderResponse{StructuredData: data}, nil
}

func (m *prescriptionServiceMock) Approve(ctx context.Context, id string) (*dto.ApproveResponse, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	if m.approveResp != nil {
		return m.approveResp, nil
	}
	return &dto.ApproveResponse{Message: "Prescription approved"}, nil
}

func (m *prescriptionServiceMock) Get(ctx context.Context, id string) (*dto.PrescriptionDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *prescriptionServiceMock) List(ctx context.Context, limit int) ([]models.PrescriptionSummary, error) {
	return m.listResp, nil
}

func (m *prescriptionServiceMock) AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error) {
	return m.auditResp, nil
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestPrescriptionHandlerCreateFromJSON(t *testing.T) {
	mock := &prescriptionServiceMock{}
	handler := NewPrescriptionHandler(mock)
	c, w := newTestContext(t)

	body, _ := json.Marshal(dto.CreatePrescriptionRequest{Transcript: "Patient is John Smith."})
	req, _ := http.NewRequest(http.MethodPost, "/prescriptions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Patient is John Smith.", mock.lastTranscript)
}

func TestPrescriptionHandlerCreateFromForm(t *testing.T) {
	mock := &prescriptionServiceMock{}
	handler := NewPrescriptionHandler(mock)
	c, w := newTestContext(t)

	form := bytes.Buffer{}
	writer := multipart.NewWriter(&form)
	require.NoError(t, writer.WriteField("transcript", "Patient is John Smith."))
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/prescriptions", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Patient is John Smith.", mock.lastTranscript)
}

func TestPrescriptionHandlerCreateAudioUploadNotImplemented(t *testing.T) {
	handler := NewPrescriptionHandler(&prescriptionServiceMock{})
	c, w := newTestContext(t)

	form := bytes.Buffer{}
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("audio_file", "visit.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFF"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/prescriptions", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestPrescriptionHandlerCreateMissingInput(t *testing.T) {
	handler := NewPrescriptionHandler(&prescriptionServiceMock{})
	c, w := newTestContext(t)

	body := []byte(`{"transcript": "   "}`)
	req, _ := http.NewRequest(http.MethodPost, "/prescriptions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrescriptionHandlerRenderInvalidBody(t *testing.T) {
	handler := NewPrescriptionHandler(&prescriptionServiceMock{})
	c, w := newTestContext(t)

	req, _ := http.NewRequest(http.MethodPost, "/prescriptions/rx-1/render", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "rx-1"}}

	handler.Render(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrescriptionHandlerRenderApprovedConflict(t *testing.T) {
	mock := &prescriptionServiceMock{
		renderErr: appErrors.Clone(appErrors.ErrConflict, "prescription is approved and can no longer be edited"),
	}
	handler := NewPrescriptionHandler(mock)
	c, w := newTestContext(t)

	body, _ := json.Marshal(dto.RenderRequest{StructuredData: models.PrescriptionData{PatientName: "Jane"}})
	req, _ := http.NewRequest(http.MethodPost, "/prescriptions/rx-1/render", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "rx-1"}}

	handler.Render(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPrescriptionHandlerApproveNotFound(t *testing.T) {
	mock := &prescriptionServiceMock{
		approveErr: appErrors.Clone(appErrors.ErrNotFound, "prescription not found"),
	}
	handler := NewPrescriptionHandler(mock)
	c, w := newTestContext(t)

	req, _ := http.NewRequest(http.MethodPost, "/prescriptions/missing/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Approve(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrescriptionHandlerListInvalidLimit(t *testing.T) {
	handler := NewPrescriptionHandler(&prescriptionServiceMock{})
	c, w := newTestContext(t)

	req, _ := http.NewRequest(http.MethodGet, "/prescriptions?limit=1000", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrescriptionHandlerAuditLogEnvelope(t *testing.T) {
	mock := &prescriptionServiceMock{auditResp: []models.AuditEntry{}}
	handler := NewPrescriptionHandler(mock)
	c, w := newTestContext(t)

	req, _ := http.NewRequest(http.MethodGet, "/prescriptions/rx-1/audit", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "rx-1"}}

	handler.AuditLog(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.AuditLogResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data.AuditLog)
}
