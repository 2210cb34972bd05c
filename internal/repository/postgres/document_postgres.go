package postgres

import (
	"context"
	"time"

	"medidoc/internal/model"
	"medidoc/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db repository.DBTX
}

// NewDocumentPostgres creates a new DocumentPostgres repository. The db
// argument may be a *sql.DB or a *sql.Tx.
func NewDocumentPostgres(db repository.DBTX) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, original_filename, storage_path, mime_type, size, doc_type,
		status, error_message, validated_by, validated_at, created_at, updated_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OriginalFilename,
		&d.StoragePath,
		&d.MimeType,
		&d.Size,
		&d.DocType,
		&d.Status,
		&d.ErrorMessage,
		&d.ValidatedBy,
		&d.ValidatedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, original_filename, storage_path, mime_type, size, doc_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OriginalFilename,
		doc.StoragePath,
		doc.MimeType,
		doc.Size,
		doc.DocType,
		doc.Status,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus sets status and error_message; a nil errorMessage clears it.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, errorMessage *string) error {
	const q = `
		UPDATE documents
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, status, errorMessage)
	return err
}

// MarkValidated transitions the row to VALIDATED and stamps the validator.
func (r *DocumentPostgres) MarkValidated(ctx context.Context, id string, validatedBy *string, at time.Time) error {
	const q = `
		UPDATE documents
		SET status = $2, error_message = NULL, validated_by = $3, validated_at = $4, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, model.StatusValidated, validatedBy, at)
	return err
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
