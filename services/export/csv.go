package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/interfaces"
	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/tracing"
	"github.com/customeros/mailharvest/internal/utils"
)

const (
	previewLength   = 200
	timestampLayout = "20060102_150405"
	csvContentType  = "text/csv; charset=utf-8"
)

var (
	baseHeader     = []string{"Subject", "Sender", "Date", "Body Preview", "Full Body"}
	analysisHeader = []string{"Tech Job", "Tech Stack", "Rate", "Start Date"}
)

type CSVExportService struct {
	dir     string
	now     func() time.Time
	storage interfaces.StorageService
	log     logger.Logger
}

// NewCSVExportService writes files into dir. storage may be nil, in which case
// nothing is uploaded.
func NewCSVExportService(dir string, storage interfaces.StorageService, log logger.Logger) *CSVExportService {
	if dir == "" {
		dir = "."
	}
	return &CSVExportService{
		dir:     dir,
		now:     time.Now,
		storage: storage,
		log:     log,
	}
}

func (s *CSVExportService) Export(ctx context.Context, messages []models.AnalyzedMessage, withAnalysis bool) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CSVExportService.Export")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("with_analysis", withAnalysis)

	if len(messages) == 0 {
		s.log.Info("No messages to export")
		return "", nil
	}

	data, err := encodeCSV(messages, withAnalysis)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(mherrors.ErrExportFailed, "failed to encode csv: %v", err)
	}

	name := FileName(s.now(), withAnalysis)
	filePath := filepath.Join(s.dir, name)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(mherrors.ErrExportFailed, "failed to write %s: %v", filePath, err)
	}
	span.LogFields(tracingLog.String("file", filePath), tracingLog.Int("rows", len(messages)))
	s.log.Infof("Exported %d messages to %s", len(messages), filePath)

	if s.storage != nil {
		if err := s.storage.Upload(ctx, name, data, csvContentType); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Failed to upload %s: %v", name, err)
		}
	}

	return filePath, nil
}

// FileName builds emails_YYYYMMDD_HHMMSS.csv, prefixed with "analyzed_" when
// the file carries extraction columns.
func FileName(at time.Time, withAnalysis bool) string {
	name := "emails_" + at.Format(timestampLayout) + ".csv"
	if withAnalysis {
		return "analyzed_" + name
	}
	return name
}

func encodeCSV(messages []models.AnalyzedMessage, withAnalysis bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := baseHeader
	if withAnalysis {
		header = append(append([]string{}, baseHeader...), analysisHeader...)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, m := range messages {
		if err := w.Write(row(m, withAnalysis)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(m models.AnalyzedMessage, withAnalysis bool) []string {
	body := m.Message.Body
	record := []string{
		m.Message.Subject,
		m.Message.Sender,
		m.Message.DateRaw,
		utils.FlattenNewlines(utils.PreviewText(body, previewLength)),
		utils.FlattenNewlines(body),
	}
	if !withAnalysis {
		return record
	}

	extraction := models.DefaultExtractionResult()
	if m.Extraction != nil {
		extraction = *m.Extraction
	}
	techJob := "No"
	if extraction.IsTechJob {
		techJob = "Yes"
	}
	return append(record,
		techJob,
		strings.Join(extraction.TechStack, ", "),
		extraction.Rate,
		extraction.StartDate,
	)
}

var _ interfaces.ExportService = (*CSVExportService)(nil)
