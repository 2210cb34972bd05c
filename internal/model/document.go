package model

import "time"

// DocumentStatus tracks a document through the intake pipeline.
// UPLOADED is the initial state; VALIDATED and FAILED are terminal.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusProcessed  DocumentStatus = "PROCESSED"
	StatusValidated  DocumentStatus = "VALIDATED"
	StatusFailed     DocumentStatus = "FAILED"
)

// Valid reports whether s is one of the known pipeline states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusProcessed, StatusValidated, StatusFailed:
		return true
	}
	return false
}

// Document represents an uploaded medical document and its pipeline state.
// This is a pure domain model with no database-specific dependencies or tags.
// Status is owned by the lifecycle logic and mutated only through defined transitions.
type Document struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	StoragePath      string         `json:"storage_path"`
	MimeType         string         `json:"mime_type"`
	Size             int64          `json:"size"`
	DocType          *string        `json:"doc_type"`
	Status           DocumentStatus `json:"status"`
	ErrorMessage     *string        `json:"error_message"`
	ValidatedBy      *string        `json:"validated_by"`
	ValidatedAt      *time.Time     `json:"validated_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
