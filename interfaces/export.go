package interfaces

import (
	"context"

	"github.com/customeros/mailharvest/internal/models"
)

type ExportService interface {
	// Export writes the batch and returns the path of the written file, or ""
	// when there was nothing to write.
	Export(ctx context.Context, messages []models.AnalyzedMessage, withAnalysis bool) (string, error)
}

type DisplayService interface {
	Display(batch models.MessageBatch)
}
