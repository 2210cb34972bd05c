package repository

import (
	"context"
	"time"

	"medidoc/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations. Status transitions
// are decided by the service layer; this interface just writes them.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a paginated list of documents and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus sets the pipeline status and error message of a document.
	// Passing a nil errorMessage clears any stored error.
	UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, errorMessage *string) error

	// MarkValidated transitions a document to VALIDATED, clears its error
	// message, and stamps the validator identity and timestamp.
	MarkValidated(ctx context.Context, id string, validatedBy *string, at time.Time) error

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// ExtractionRepository is the append-only versioned store of extraction
// results. Rows are immutable; corrections insert new versions.
type ExtractionRepository interface {
	// Latest returns the highest-version extraction for a document,
	// or sql.ErrNoRows when none exists.
	Latest(ctx context.Context, documentID string) (*model.Extraction, error)

	// LatestForUpdate is Latest with an exclusive row lock (FOR UPDATE).
	// Must be called inside a transaction; the lock prevents two concurrent
	// correction submissions from computing the same next version.
	LatestForUpdate(ctx context.Context, documentID string) (*model.Extraction, error)

	// ExistsVersion reports whether the given version already exists.
	ExistsVersion(ctx context.Context, documentID string, version int) (bool, error)

	// Create inserts a new extraction row. The (document_id, version)
	// uniqueness constraint turns a concurrent double-append into
	// ErrVersionConflict.
	Create(ctx context.Context, ex *model.Extraction) (*model.Extraction, error)
}

// AiRequestRepository records one immutable audit row per extraction attempt.
type AiRequestRepository interface {
	Create(ctx context.Context, req *model.AiRequest) (*model.AiRequest, error)
}

// FieldCorrectionRepository stores the audit trail of human field corrections.
type FieldCorrectionRepository interface {
	Create(ctx context.Context, fc *model.FieldCorrection) (*model.FieldCorrection, error)
	ListByDocument(ctx context.Context, documentID string) ([]model.FieldCorrection, error)
}
