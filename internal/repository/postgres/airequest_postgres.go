package postgres

import (
	"context"

	"medidoc/internal/model"
	"medidoc/internal/repository"
)

// AiRequestPostgres is a PostgreSQL implementation of repository.AiRequestRepository.
// Rows are immutable audit records; there is intentionally no update or delete.
type AiRequestPostgres struct {
	db repository.DBTX
}

// NewAiRequestPostgres creates a new AiRequestPostgres repository.
func NewAiRequestPostgres(db repository.DBTX) *AiRequestPostgres {
	return &AiRequestPostgres{db: db}
}

var _ repository.AiRequestRepository = (*AiRequestPostgres)(nil)

// Create inserts one extraction-attempt audit row and returns the stored record.
func (r *AiRequestPostgres) Create(ctx context.Context, req *model.AiRequest) (*model.AiRequest, error) {
	const q = `
		INSERT INTO ai_requests (id, correlation_id, document_id, doc_type_sent, http_status, outcome, processing_time_ms, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, correlation_id, document_id, doc_type_sent, http_status, outcome, processing_time_ms, error_message, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.CorrelationID,
		req.DocumentID,
		req.DocTypeSent,
		req.HTTPStatus,
		req.Outcome,
		req.ProcessingTimeMS,
		req.ErrorMessage,
		req.CreatedAt,
	)
	var out model.AiRequest
	if err := row.Scan(
		&out.ID,
		&out.CorrelationID,
		&out.DocumentID,
		&out.DocTypeSent,
		&out.HTTPStatus,
		&out.Outcome,
		&out.ProcessingTimeMS,
		&out.ErrorMessage,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}
