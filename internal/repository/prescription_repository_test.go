package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
)

func newTestRepository(t *testing.T) *PrescriptionRepository {
	t.Helper()
	repo, err := NewPrescriptionRepository(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return repo
}

func draftRecord(id string, createdAt time.Time) *models.PrescriptionRecord {
	return &models.PrescriptionRecord{
		ID:     id,
		Status: models.StatusDraft,
		StructuredData: models.PrescriptionData{
			PatientName: "Patient " + id,
			Diagnosis:   "Diagnosis " + id,
		},
		RawTranscript: "transcript " + id,
		Warnings:      []string{},
		CreatedAt:     createdAt,
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := draftRecord("rx-1", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, record))

	got, err := repo.Get(ctx, "rx-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.StructuredData.PatientName, got.StructuredData.PatientName)
	assert.Equal(t, models.StatusDraft, got.Status)
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPrescriptionNotFound)
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := draftRecord("rx-1", time.Now().UTC())
	record.PreviewPDFPath = "/data/rx-1_preview.pdf"
	require.NoError(t, repo.Save(ctx, record))

	newData := models.PrescriptionData{PatientName: "Edited Name", Diagnosis: "Edited Diagnosis"}
	updated, err := repo.Update(ctx, "rx-1", UpdateFields{StructuredData: &newData})
	require.NoError(t, err)

	assert.Equal(t, "Edited Name", updated.StructuredData.PatientName)
	// Fields not named in the update keep their prior values.
	assert.Equal(t, "/data/rx-1_preview.pdf", updated.PreviewPDFPath)
	assert.Equal(t, "transcript rx-1", updated.RawTranscript)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Update(context.Background(), "missing", UpdateFields{})
	assert.ErrorIs(t, err, ErrPrescriptionNotFound)
}

func TestApproveIsOneWay(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, draftRecord("rx-1", time.Now().UTC())))

	first, err := repo.Approve(ctx, "rx-1", "/data/rx-1_final.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, first.Status)
	require.NotNil(t, first.ApprovedAt)
	assert.Equal(t, "/data/rx-1_final.pdf", first.FinalPDFPath)

	second, err := repo.Approve(ctx, "rx-1", "/data/other_final.pdf")
	require.NoError(t, err)
	// Repeat approval keeps the original timestamp and artifact path.
	assert.Equal(t, first.ApprovedAt, second.ApprovedAt)
	assert.Equal(t, "/data/rx-1_final.pdf", second.FinalPDFPath)
}

func TestAuditLogRecordsEveryMutation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, draftRecord("rx-1", time.Now().UTC())))

	newData := models.PrescriptionData{PatientName: "Edited", Diagnosis: "Edited"}
	_, err := repo.Update(ctx, "rx-1", UpdateFields{StructuredData: &newData})
	require.NoError(t, err)

	_, err = repo.Approve(ctx, "rx-1", "/data/rx-1_final.pdf")
	require.NoError(t, err)
	_, err = repo.Approve(ctx, "rx-1", "/data/ignored.pdf")
	require.NoError(t, err)

	entries, err := repo.AuditLog(ctx, "rx-1")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Each entry is a full post-mutation snapshot, in order.
	assert.Equal(t, models.StatusDraft, entries[0].Data.Status)
	assert.Equal(t, "Edited", entries[1].Data.StructuredData.PatientName)
	assert.Equal(t, models.StatusApproved, entries[2].Data.Status)
	assert.Equal(t, "/data/rx-1_final.pdf", entries[3].Data.FinalPDFPath)
}

func TestAuditLogUnknownIDIsEmpty(t *testing.T) {
	repo := newTestRepository(t)

	entries, err := repo.AuditLog(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, draftRecord("rx-old", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(ctx, draftRecord("rx-new", base)))
	require.NoError(t, repo.Save(ctx, draftRecord("rx-mid", base.Add(-time.Hour))))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rx-new", all[0].ID)
	assert.Equal(t, "rx-mid", all[1].ID)
	assert.Equal(t, "rx-old", all[2].ID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "rx-new", limited[0].ID)
}

func TestRecordsSurviveRepositoryRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewPrescriptionRepository(dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, draftRecord("rx-1", time.Now().UTC())))

	reopened, err := NewPrescriptionRepository(dir, zap.NewNop())
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "rx-1")
	require.NoError(t, err)
	assert.Equal(t, "rx-1", got.ID)

	entries, err := reopened.AuditLog(ctx, "rx-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
