package model

import "time"

// Outcomes recorded on AiRequest audit rows.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
)

// ExtractionMeta is the extractor-provided metadata block of a result payload.
type ExtractionMeta struct {
	RequestID        string         `json:"request_id"`
	DocType          string         `json:"doc_type"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	OCREngine        string         `json:"ocr_engine,omitempty"`
	Note             string         `json:"note,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// ExtractionResult is the structured payload stored with every extraction
// version: extractor metadata, the closed field set, per-field confidence
// scores in [0,1], and human-readable warnings.
type ExtractionResult struct {
	Meta       ExtractionMeta     `json:"meta"`
	Fields     DocumentFields     `json:"fields"`
	Confidence map[string]float64 `json:"confidence"`
	Warnings   []string           `json:"warnings"`
}

// Extraction is one immutable, versioned snapshot of field values produced
// for a document. Versions are gapless per document starting at 1; the
// highest version is authoritative. Corrections append a new row, never edit.
type Extraction struct {
	ID          string           `json:"id"`
	DocumentID  string           `json:"document_id"`
	AiRequestID string           `json:"ai_request_id"`
	Version     int              `json:"version"`
	Result      ExtractionResult `json:"result"`
	CreatedAt   time.Time        `json:"created_at"`
}

// AiRequest is the immutable audit record of one extraction attempt,
// success or failure. CorrelationID is unique and generated per attempt.
type AiRequest struct {
	ID               string    `json:"id"`
	CorrelationID    string    `json:"correlation_id"`
	DocumentID       string    `json:"document_id"`
	DocTypeSent      string    `json:"doc_type_sent"`
	HTTPStatus       int       `json:"http_status"`
	Outcome          string    `json:"outcome"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	ErrorMessage     *string   `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}
