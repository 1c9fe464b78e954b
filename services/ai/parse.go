package ai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/utils"
)

type extractionReply struct {
	TechStack *[]string `json:"tech_stack"`
	Rate      *string   `json:"rate"`
	StartDate *string   `json:"start_date"`
	IsTechJob *bool     `json:"is_tech_job"`
}

// ParseExtractionReply decodes the JSON object embedded in a model reply.
// Prose around the object is ignored; every field must be present.
func ParseExtractionReply(reply string) (models.ExtractionResult, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return models.ExtractionResult{}, mherrors.ErrNoStructuredReply
	}

	var parsed extractionReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return models.ExtractionResult{}, errors.Wrap(err, "failed to decode model reply")
	}

	switch {
	case parsed.TechStack == nil:
		return models.ExtractionResult{}, errors.Wrap(mherrors.ErrNoStructuredReply, "missing tech_stack")
	case parsed.Rate == nil:
		return models.ExtractionResult{}, errors.Wrap(mherrors.ErrNoStructuredReply, "missing rate")
	case parsed.StartDate == nil:
		return models.ExtractionResult{}, errors.Wrap(mherrors.ErrNoStructuredReply, "missing start_date")
	case parsed.IsTechJob == nil:
		return models.ExtractionResult{}, errors.Wrap(mherrors.ErrNoStructuredReply, "missing is_tech_job")
	}

	return models.ExtractionResult{
		TechStack: utils.UniqueStrings(*parsed.TechStack),
		Rate:      *parsed.Rate,
		StartDate: *parsed.StartDate,
		IsTechJob: *parsed.IsTechJob,
	}, nil
}
