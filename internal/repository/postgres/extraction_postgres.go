package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"medidoc/internal/model"
	"medidoc/internal/repository"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ExtractionPostgres is a PostgreSQL implementation of repository.ExtractionRepository.
// The result payload is stored as JSONB; rows are append-only.
type ExtractionPostgres struct {
	db repository.DBTX
}

// NewExtractionPostgres creates a new ExtractionPostgres repository. The db
// argument may be a *sql.DB or a *sql.Tx.
func NewExtractionPostgres(db repository.DBTX) *ExtractionPostgres {
	return &ExtractionPostgres{db: db}
}

var _ repository.ExtractionRepository = (*ExtractionPostgres)(nil)

const extractionColumns = `id, document_id, ai_request_id, version, result, created_at`

func scanExtraction(row interface{ Scan(dest ...any) error }) (*model.Extraction, error) {
	var (
		e   model.Extraction
		raw []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.DocumentID,
		&e.AiRequestID,
		&e.Version,
		&raw,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &e.Result); err != nil {
		return nil, fmt.Errorf("decode extraction result: %w", err)
	}
	return &e, nil
}

// Latest returns the highest-version extraction, or sql.ErrNoRows.
func (r *ExtractionPostgres) Latest(ctx context.Context, documentID string) (*model.Extraction, error) {
	const q = `
		SELECT ` + extractionColumns + `
		FROM extractions
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return scanExtraction(r.db.QueryRowContext(ctx, q, documentID))
}

// LatestForUpdate is Latest with FOR UPDATE; call inside a transaction.
func (r *ExtractionPostgres) LatestForUpdate(ctx context.Context, documentID string) (*model.Extraction, error) {
	const q = `
		SELECT ` + extractionColumns + `
		FROM extractions
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanExtraction(r.db.QueryRowContext(ctx, q, documentID))
}

// ExistsVersion reports whether a row with the given version exists.
func (r *ExtractionPostgres) ExistsVersion(ctx context.Context, documentID string, version int) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM extractions WHERE document_id = $1 AND version = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, documentID, version).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a new extraction row. A duplicate (document_id, version)
// surfaces as repository.ErrVersionConflict.
func (r *ExtractionPostgres) Create(ctx context.Context, ex *model.Extraction) (*model.Extraction, error) {
	raw, err := json.Marshal(ex.Result)
	if err != nil {
		return nil, fmt.Errorf("encode extraction result: %w", err)
	}

	const q = `
		INSERT INTO extractions (id, document_id, ai_request_id, version, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + extractionColumns
	row := r.db.QueryRowContext(ctx, q,
		ex.ID,
		ex.DocumentID,
		ex.AiRequestID,
		ex.Version,
		raw,
		ex.CreatedAt,
	)
	out, err := scanExtraction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrVersionConflict
		}
		return nil, err
	}
	return out, nil
}
