package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	docx "github.com/lukasjarosch/go-docx"
	"go.uber.org/zap"

	"github.com/skinopsis/prescription-api/internal/models"
	appErrors "github.com/skinopsis/prescription-api/pkg/errors"
	"github.com/skinopsis/prescription-api/pkg/storage"
)

// pdfConverter turns a rendered document into a PDF in outDir. The exec
// implementation is the production path; tests substitute fakes.
type pdfConverter interface {
	Convert(ctx context.Context, inputPath, outDir string) (string, error)
}

// DocumentServiceConfig tunes rendering and conversion.
type DocumentServiceConfig struct {
	TemplatePath   string
	ConvertTimeout time.Duration
}

// DocumentService fills the externally supplied DOCX template and converts
// it into a distributable PDF through a bounded-time external process.
type DocumentService struct {
	templatePath string
	store        *storage.LocalStorage
	converter    pdfConverter
	timeout      time.Duration
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewDocumentService verifies the template exists up front; a missing
// template is a configuration error, not a runtime data error.
func NewDocumentService(store *storage.LocalStorage, converter pdfConverter, cfg DocumentServiceConfig, metrics *MetricsService, logger *zap.Logger) (*DocumentService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = 30 * time.Second
	}
	if converter == nil {
		converter = NewSofficeConverter("")
	}
	if _, err := os.Stat(cfg.TemplatePath); err != nil {
		return nil, fmt.Errorf("template not found at %s: %w", cfg.TemplatePath, err)
	}
	return &DocumentService{
		templatePath: cfg.TemplatePath,
		store:        store,
		converter:    converter,
		timeout:      cfg.ConvertTimeout,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// RenderDocx substitutes the record's template variables into the template
// and writes the filled document under the storage root. Presentation
// blocks are recomputed on every call.
func (s *DocumentService) RenderDocx(data models.PrescriptionData, baseName string) (string, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDocumentStage("render", time.Since(start))
		}
	}()

	doc, err := docx.Open(s.templatePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to open template")
	}

	vars := data.TemplateDict()
	placeholders := make(docx.PlaceholderMap, len(vars))
	for key, value := range vars {
		placeholders[key] = value
	}
	if err := doc.ReplaceAll(placeholders); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "template placeholder mismatch")
	}

	docxPath := s.store.Path(baseName + ".docx")
	if err := doc.WriteToFile(docxPath); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to write filled document")
	}
	return docxPath, nil
}

// ConvertToPDF runs the external converter with a hard timeout. Nonzero
// exit, timeout and missing output are distinct reported failures; partial
// output is never returned as success.
func (s *DocumentService) ConvertToPDF(ctx context.Context, docxPath string) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pdfPath, err := s.converter.Convert(ctx, docxPath, s.store.BaseDir())
	if s.metrics != nil {
		s.metrics.ObserveDocumentStage("convert", time.Since(start))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			if s.metrics != nil {
				s.metrics.RecordConversion("timeout")
			}
			return "", appErrors.Wrap(err, appErrors.ErrConversionFailed.Code, appErrors.ErrConversionFailed.Status, "pdf conversion timed out")
		}
		if s.metrics != nil {
			s.metrics.RecordConversion("error")
		}
		return "", appErrors.Wrap(err, appErrors.ErrConversionFailed.Code, appErrors.ErrConversionFailed.Status, "pdf conversion failed")
	}
	if s.metrics != nil {
		s.metrics.RecordConversion("success")
	}
	return pdfPath, nil
}

// GeneratePrescriptionPDF renders and converts as one operation. On error
// no paths are reported; intermediates from a failed conversion are left
// for external garbage collection but never referenced in the result.
func (s *DocumentService) GeneratePrescriptionPDF(ctx context.Context, data models.PrescriptionData, baseName string) (string, string, error) {
	docxPath, err := s.RenderDocx(data, baseName)
	if err != nil {
		return "", "", err
	}
	pdfPath, err := s.ConvertToPDF(ctx, docxPath)
	if err != nil {
		return "", "", err
	}
	return docxPath, pdfPath, nil
}

// ValidateTemplate reports whether the template opens and parses. The
// binary format does not allow reliably enumerating placeholders, so this
// is a boolean openability check.
func (s *DocumentService) ValidateTemplate() models.TemplateValidation {
	required := make([]string, len(models.TemplatePlaceholders))
	copy(required, models.TemplatePlaceholders)

	if _, err := docx.Open(s.templatePath); err != nil {
		return models.TemplateValidation{
			Valid:                false,
			Message:              fmt.Sprintf("Template validation failed: %v", err),
			RequiredPlaceholders: required,
		}
	}
	return models.TemplateValidation{
		Valid:                true,
		Message:              "Template loaded successfully",
		RequiredPlaceholders: required,
	}
}

// SofficeConverter shells out to LibreOffice headless.
type SofficeConverter struct {
	bin string
}

// NewSofficeConverter builds the exec-based converter.
func NewSofficeConverter(bin string) *SofficeConverter {
	if bin == "" {
		bin = "soffice"
	}
	return &SofficeConverter{bin: bin}
}

// Convert invokes the converter process and verifies the expected output
// file exists. The output name is derived deterministically from the input.
func (c *SofficeConverter) Convert(ctx context.Context, inputPath, outDir string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, inputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("converter failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("converter produced no output file at %s", pdfPath)
	}
	return pdfPath, nil
}
