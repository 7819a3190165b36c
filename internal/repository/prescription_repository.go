package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
)

// ErrPrescriptionNotFound is returned for operations on unknown record ids.
var ErrPrescriptionNotFound = errors.New("prescription not found")

const prescriptionsFile = "prescriptions.json"

// UpdateFields lists the mutable draft fields; nil members are left
// untouched by Update.
type UpdateFields struct {
	StructuredData *models.PrescriptionData
	PreviewPDFPath *string
	DocxPath       *string
	Warnings       *[]string
}

// PrescriptionRepository persists records as one JSON object keyed by id
// plus one append-only audit file per id. Whole-file read-modify-write with
// last-writer-wins semantics; writes within this process are serialized by
// a mutex, cross-process writers are assumed to be excluded externally.
type PrescriptionRepository struct {
	mu        sync.Mutex
	indexPath string
	auditDir  string
	logger    *zap.Logger
}

// NewPrescriptionRepository prepares the data directory and index file.
func NewPrescriptionRepository(dataDir string, logger *zap.Logger) (*PrescriptionRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	auditDir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(auditDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	repo := &PrescriptionRepository{
		indexPath: filepath.Join(dataDir, prescriptionsFile),
		auditDir:  auditDir,
		logger:    logger,
	}

	if _, err := os.Stat(repo.indexPath); os.IsNotExist(err) {
		if err := repo.writeIndex(map[string]models.PrescriptionRecord{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat prescriptions index: %w", err)
	}

	return repo, nil
}

// Save stores a record and appends a full audit snapshot.
func (r *PrescriptionRepository) Save(ctx context.Context, record *models.PrescriptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex()
	if err != nil {
		return err
	}
	index[record.ID] = *record
	if err := r.writeIndex(index); err != nil {
		return err
	}
	return r.appendAudit(record.ID, *record)
}

// Get retrieves a record by id.
func (r *PrescriptionRepository) Get(ctx context.Context, id string) (*models.PrescriptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex()
	if err != nil {
		return nil, err
	}
	record, ok := index[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return &record, nil
}

// Update merges only the supplied fields into the stored record and appends
// an audit snapshot of the post-mutation state.
func (r *PrescriptionRepository) Update(ctx context.Context, id string, updates UpdateFields) (*models.PrescriptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex()
	if err != nil {
		return nil, err
	}
	record, ok := index[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}

	if updates.StructuredData != nil {
		record.StructuredData = *updates.StructuredData
	}
	if updates.PreviewPDFPath != nil {
		record.PreviewPDFPath = *updates.PreviewPDFPath
	}
	if updates.DocxPath != nil {
		record.DocxPath = *updates.DocxPath
	}
	if updates.Warnings != nil {
		record.Warnings = *updates.Warnings
	}

	index[id] = record
	if err := r.writeIndex(index); err != nil {
		return nil, err
	}
	if err := r.appendAudit(id, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Approve marks the record approved and pins the final artifact path. The
// transition happens once; repeat calls keep the original approved_at and
// final path, though a fresh audit snapshot is still appended.
func (r *PrescriptionRepository) Approve(ctx context.Context, id, finalPath string) (*models.PrescriptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex()
	if err != nil {
		return nil, err
	}
	record, ok := index[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}

	if record.Status != models.StatusApproved {
		now := time.Now().UTC()
		record.Status = models.StatusApproved
		record.ApprovedAt = &now
		record.FinalPDFPath = finalPath
	}

	index[id] = record
	if err := r.writeIndex(index); err != nil {
		return nil, err
	}
	if err := r.appendAudit(id, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns summaries ordered newest-first, bounded by limit when
// positive.
func (r *PrescriptionRepository) List(ctx context.Context, limit int) ([]models.PrescriptionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PrescriptionSummary, 0, len(index))
	for id, record := range index {
		summaries = append(summaries, models.PrescriptionSummary{
			ID:          id,
			PatientName: record.StructuredData.PatientName,
			Status:      record.Status,
			CreatedAt:   record.CreatedAt,
			ApprovedAt:  record.ApprovedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// AuditLog returns the ordered audit trail for a record. Unknown ids yield
// an empty trail, not an error.
func (r *PrescriptionRepository) AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAudit(id)
}

func (r *PrescriptionRepository) readIndex() (map[string]models.PrescriptionRecord, error) {
	raw, err := os.ReadFile(r.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.PrescriptionRecord{}, nil
		}
		return nil, fmt.Errorf("read prescriptions index: %w", err)
	}

	index := map[string]models.PrescriptionRecord{}
	if err := json.Unmarshal(raw, &index); err != nil {
		// A corrupt index is unrecoverable data, not an empty table.
		return nil, fmt.Errorf("decode prescriptions index: %w", err)
	}
	return index, nil
}

func (r *PrescriptionRepository) writeIndex(index map[string]models.PrescriptionRecord) error {
	payload, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prescriptions index: %w", err)
	}
	if err := os.WriteFile(r.indexPath, payload, 0o644); err != nil {
		return fmt.Errorf("write prescriptions index: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) appendAudit(id string, record models.PrescriptionRecord) error {
	entries, err := r.readAudit(id)
	if err != nil {
		r.logger.Warn("resetting unreadable audit log", zap.String("id", id), zap.Error(err))
		entries = []models.AuditEntry{}
	}

	entries = append(entries, models.AuditEntry{
		Timestamp: time.Now().UTC(),
		Data:      record,
	})

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	if err := os.WriteFile(r.auditPath(id), payload, 0o644); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) readAudit(id string) ([]models.AuditEntry, error) {
	raw, err := os.ReadFile(r.auditPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.AuditEntry{}, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	entries := []models.AuditEntry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode audit log: %w", err)
	}
	return entries, nil
}

func (r *PrescriptionRepository) auditPath(id string) string {
	return filepath.Join(r.auditDir, id+".json")
}
