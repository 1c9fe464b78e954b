package interfaces

import (
	"context"

	"github.com/customeros/mailharvest/internal/models"
)

type ExtractorService interface {
	// Extract never fails: any problem yields models.DefaultExtractionResult.
	Extract(ctx context.Context, body string) models.ExtractionResult
}
