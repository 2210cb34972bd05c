package model

import "time"

// FieldCorrection is one audited field change made during human validation.
// A row is created only when the effective value actually changed; rows are
// never updated or deleted.
type FieldCorrection struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	FieldName      string    `json:"field_name"`
	OriginalValue  *string   `json:"original_value"`
	CorrectedValue *string   `json:"corrected_value"`
	UserID         *string   `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}
