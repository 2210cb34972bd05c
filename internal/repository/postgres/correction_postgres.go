package postgres

import (
	"context"

	"medidoc/internal/model"
	"medidoc/internal/repository"
)

// FieldCorrectionPostgres is a PostgreSQL implementation of
// repository.FieldCorrectionRepository. The audit trail is insert-only.
type FieldCorrectionPostgres struct {
	db repository.DBTX
}

// NewFieldCorrectionPostgres creates a new FieldCorrectionPostgres repository.
func NewFieldCorrectionPostgres(db repository.DBTX) *FieldCorrectionPostgres {
	return &FieldCorrectionPostgres{db: db}
}

var _ repository.FieldCorrectionRepository = (*FieldCorrectionPostgres)(nil)

const correctionColumns = `id, document_id, field_name, original_value, corrected_value, user_id, created_at`

// Create inserts one field correction audit row.
func (r *FieldCorrectionPostgres) Create(ctx context.Context, fc *model.FieldCorrection) (*model.FieldCorrection, error) {
	const q = `
		INSERT INTO field_corrections (id, document_id, field_name, original_value, corrected_value, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + correctionColumns
	row := r.db.QueryRowContext(ctx, q,
		fc.ID,
		fc.DocumentID,
		fc.FieldName,
		fc.OriginalValue,
		fc.CorrectedValue,
		fc.UserID,
		fc.CreatedAt,
	)
	var out model.FieldCorrection
	if err := row.Scan(
		&out.ID,
		&out.DocumentID,
		&out.FieldName,
		&out.OriginalValue,
		&out.CorrectedValue,
		&out.UserID,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByDocument returns the correction history of a document, oldest first.
func (r *FieldCorrectionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.FieldCorrection, error) {
	const q = `
		SELECT ` + correctionColumns + `
		FROM field_corrections
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FieldCorrection, 0)
	for rows.Next() {
		var fc model.FieldCorrection
		if err := rows.Scan(
			&fc.ID,
			&fc.DocumentID,
			&fc.FieldName,
			&fc.OriginalValue,
			&fc.CorrectedValue,
			&fc.UserID,
			&fc.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
