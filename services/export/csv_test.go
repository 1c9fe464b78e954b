package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(key, data, contentType)
	return args.Error(0)
}

var fixedTime = time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)

func newTestExporter(t *testing.T, storage *mockStorage) *CSVExportService {
	t.Helper()
	var svc *CSVExportService
	if storage != nil {
		svc = NewCSVExportService(t.TempDir(), storage, logger.NewNopLogger())
	} else {
		svc = NewCSVExportService(t.TempDir(), nil, logger.NewNopLogger())
	}
	svc.now = func() time.Time { return fixedTime }
	return svc
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExport_PlainColumns(t *testing.T) {
	svc := newTestExporter(t, nil)
	longBody := strings.Repeat("x", 205)

	path, err := svc.Export(context.Background(), []models.AnalyzedMessage{
		{Message: models.ParsedMessage{Subject: "Hello, world", Sender: "\"Doe, John\" <john@example.com>", DateRaw: "Tue, 1 Apr 2025 10:00:00 +0900", Body: "line1\r\nline2\nline3\rline4"}},
		{Message: models.ParsedMessage{Subject: "Long", Sender: "a@example.com", Body: longBody}},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "emails_20260314_090507.csv", filepath.Base(path))
	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Subject", "Sender", "Date", "Body Preview", "Full Body"}, records[0])
	assert.Equal(t, []string{
		"Hello, world",
		"\"Doe, John\" <john@example.com>",
		"Tue, 1 Apr 2025 10:00:00 +0900",
		"line1 line2 line3 line4",
		"line1 line2 line3 line4",
	}, records[1])
	assert.Equal(t, strings.Repeat("x", 200)+"...", records[2][3])
	assert.Equal(t, longBody, records[2][4])
}

func TestExport_AnalysisColumns(t *testing.T) {
	svc := newTestExporter(t, nil)

	path, err := svc.Export(context.Background(), []models.AnalyzedMessage{
		{
			Message: models.ParsedMessage{Subject: "Go案件", Sender: "agent@example.jp", Body: "Go エンジニア募集"},
			Extraction: &models.ExtractionResult{
				TechStack: []string{"Go", "gRPC"},
				Rate:      "80万円/月",
				StartDate: "4月",
				IsTechJob: true,
			},
		},
		{
			Message:    models.ParsedMessage{Subject: "Newsletter", Sender: "news@example.com"},
			Extraction: nil,
		},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "analyzed_emails_20260314_090507.csv", filepath.Base(path))
	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Subject", "Sender", "Date", "Body Preview", "Full Body", "Tech Job", "Tech Stack", "Rate", "Start Date"}, records[0])
	assert.Equal(t, []string{"Go案件", "agent@example.jp", "", "Go エンジニア募集", "Go エンジニア募集", "Yes", "Go, gRPC", "80万円/月", "4月"}, records[1])
	assert.Equal(t, []string{"Newsletter", "news@example.com", "", "", "", "No", "", "", ""}, records[2])
}

func TestExport_EmptyBatchWritesNothing(t *testing.T) {
	storage := new(mockStorage)
	svc := newTestExporter(t, storage)

	path, err := svc.Export(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, "", path)

	entries, err := os.ReadDir(svc.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestExport_UploadsSameBytes(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Upload", "emails_20260314_090507.csv", mock.Anything, csvContentType).Return(nil)
	svc := newTestExporter(t, storage)

	path, err := svc.Export(context.Background(), []models.AnalyzedMessage{
		{Message: models.ParsedMessage{Subject: "s", Sender: "f", Body: "b"}},
	}, false)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	storage.AssertExpectations(t)
	assert.Equal(t, written, storage.Calls[0].Arguments.Get(1).([]byte))
}

func TestExport_UploadFailureIsNotFatal(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("network unreachable"))
	svc := newTestExporter(t, storage)

	path, err := svc.Export(context.Background(), []models.AnalyzedMessage{
		{Message: models.ParsedMessage{Subject: "s", Sender: "f", Body: "b"}},
	}, false)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExport_WriteFailure(t *testing.T) {
	svc := newTestExporter(t, nil)
	svc.dir = filepath.Join(svc.dir, "missing", "dir")

	path, err := svc.Export(context.Background(), []models.AnalyzedMessage{
		{Message: models.ParsedMessage{Subject: "s"}},
	}, false)
	require.Error(t, err)
	assert.Equal(t, "", path)
	assert.True(t, errors.Is(err, mherrors.ErrExportFailed))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "emails_20260314_090507.csv", FileName(fixedTime, false))
	assert.Equal(t, "analyzed_emails_20260314_090507.csv", FileName(fixedTime, true))
}
