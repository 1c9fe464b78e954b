package models

type ExtractionResult struct {
	TechStack []string `json:"tech_stack"`
	Rate      string   `json:"rate"`
	StartDate string   `json:"start_date"`
	IsTechJob bool     `json:"is_tech_job"`
}

// DefaultExtractionResult is returned whenever a message cannot be classified.
func DefaultExtractionResult() ExtractionResult {
	return ExtractionResult{
		TechStack: []string{},
		Rate:      "",
		StartDate: "",
		IsTechJob: false,
	}
}
