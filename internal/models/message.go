package models

// ParsedMessage is the decoded view of one mailbox message. Subject and Sender
// are always plain text; Body holds only the plain-text part.
type ParsedMessage struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	DateRaw string `json:"date"`
	Body    string `json:"body"`
}

// MessageBatch is ordered newest first.
type MessageBatch []ParsedMessage

// AnalyzedMessage pairs a message with its extraction result. Extraction is nil
// when analysis did not run for the batch.
type AnalyzedMessage struct {
	Message    ParsedMessage
	Extraction *ExtractionResult
}
