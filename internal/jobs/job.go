package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medidoc/internal/database"
	"medidoc/internal/extractor"
	"medidoc/internal/model"
	"medidoc/internal/repository"
	"medidoc/internal/storage"
)

// maxPersistedErrorRunes bounds error messages stored for audit.
const maxPersistedErrorRunes = 1000

// docTypeUnknown is recorded when a document carries no declared type.
const docTypeUnknown = "unknown"

// TxRepos bundles the repositories bound to one transaction for the
// extraction commit.
type TxRepos struct {
	Docs        repository.DocumentRepository
	Extractions repository.ExtractionRepository
	AiRequests  repository.AiRequestRepository
}

// TxReposFactory builds transaction-scoped repositories for the runner.
type TxReposFactory func(tx repository.DBTX) TxRepos

// Runner drives one document from UPLOADED through PROCESSING to PROCESSED,
// or to FAILED once the dispatcher gives up. It is safe to invoke repeatedly
// for the same document: the idempotence guards make re-runs no-ops.
type Runner struct {
	db          *sql.DB
	docs        repository.DocumentRepository
	extractions repository.ExtractionRepository
	store       storage.Storage
	extractor   extractor.Extractor
	repos       TxReposFactory
	loc         *time.Location
}

// NewRunner constructs a Runner.
func NewRunner(
	db *sql.DB,
	docs repository.DocumentRepository,
	extractions repository.ExtractionRepository,
	store storage.Storage,
	ex extractor.Extractor,
	repos TxReposFactory,
	loc *time.Location,
) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		db:          db,
		docs:        docs,
		extractions: extractions,
		store:       store,
		extractor:   ex,
		repos:       repos,
		loc:         loc,
	}
}

// Run performs one extraction attempt. A returned error means the attempt
// may be retried; nil means the document needs no further work.
func (r *Runner) Run(ctx context.Context, documentID string) error {
	doc, err := r.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logJSON(r.loc, map[string]any{
				"component":   "jobs",
				"event":       "extraction_skipped",
				"status":      "success",
				"msg":         "document no longer exists",
				"document_id": documentID,
			})
			return nil
		}
		return fmt.Errorf("load document: %w", err)
	}

	if doc.Status == model.StatusProcessed || doc.Status == model.StatusValidated {
		logJSON(r.loc, map[string]any{
			"component":   "jobs",
			"event":       "extraction_skipped",
			"status":      "success",
			"msg":         "document already processed",
			"document_id": doc.ID,
			"doc_status":  string(doc.Status),
		})
		return nil
	}

	// A version 1 row means a prior attempt committed but the job was
	// re-invoked before acknowledgment. Only the status flip is missing.
	exists, err := r.extractions.ExistsVersion(ctx, doc.ID, 1)
	if err != nil {
		return fmt.Errorf("check existing extraction: %w", err)
	}
	if exists {
		if err := r.docs.UpdateStatus(ctx, doc.ID, model.StatusProcessed, nil); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
		logJSON(r.loc, map[string]any{
			"component":   "jobs",
			"event":       "extraction_recovered",
			"status":      "success",
			"msg":         "extraction already committed, status flipped to PROCESSED",
			"document_id": doc.ID,
		})
		return nil
	}

	// Committed immediately so the document is visibly in flight.
	if err := r.docs.UpdateStatus(ctx, doc.ID, model.StatusProcessing, nil); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	file, _, err := r.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("fetch file from storage: %w", err)
	}
	defer file.Close()

	docType := ""
	if doc.DocType != nil {
		docType = *doc.DocType
	}

	result, err := r.extractor.Extract(ctx, file, doc.OriginalFilename, docType)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	correlationID := result.Meta.RequestID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	err = database.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		tr := r.repos(tx)

		aiReq, err := tr.AiRequests.Create(ctx, &model.AiRequest{
			ID:               uuid.New().String(),
			CorrelationID:    correlationID,
			DocumentID:       doc.ID,
			DocTypeSent:      docTypeSent(doc.DocType),
			HTTPStatus:       200,
			Outcome:          model.OutcomeSuccess,
			ProcessingTimeMS: result.Meta.ProcessingTimeMS,
			CreatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("record ai request: %w", err)
		}

		if _, err := tr.Extractions.Create(ctx, &model.Extraction{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			AiRequestID: aiReq.ID,
			Version:     1,
			Result:      *result,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		return tr.Docs.UpdateStatus(ctx, doc.ID, model.StatusProcessed, nil)
	})
	if err != nil {
		// A concurrent run committed version 1 first; its commit also set
		// the status, so there is nothing left to do.
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil
		}
		return err
	}

	logJSON(r.loc, map[string]any{
		"component":          "jobs",
		"event":              "extraction_succeeded",
		"status":             "success",
		"document_id":        doc.ID,
		"correlation_id":     correlationID,
		"extracted_fields":   result.Fields.NonNull(),
		"warning_count":      len(result.Warnings),
		"processing_time_ms": result.Meta.ProcessingTimeMS,
	})
	return nil
}

// Failed is invoked once after the dispatcher exhausts its retries. It
// re-fetches the document fresh and records the terminal failure. It never
// depends on state from the failed attempts.
func (r *Runner) Failed(ctx context.Context, documentID string, cause error) error {
	doc, err := r.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logJSON(r.loc, map[string]any{
				"component":   "jobs",
				"event":       "extraction_failure_skipped",
				"status":      "success",
				"msg":         "document no longer exists",
				"document_id": documentID,
			})
			return nil
		}
		return fmt.Errorf("load document: %w", err)
	}

	msg := truncateRunes(cause.Error(), maxPersistedErrorRunes)
	now := time.Now().UTC()

	httpStatus := 500
	var te *extractor.TransportError
	if errors.As(cause, &te) && te.StatusCode > 0 {
		httpStatus = te.StatusCode
	}

	err = database.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		tr := r.repos(tx)

		if err := tr.Docs.UpdateStatus(ctx, doc.ID, model.StatusFailed, &msg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}

		_, err := tr.AiRequests.Create(ctx, &model.AiRequest{
			ID:            uuid.New().String(),
			CorrelationID: uuid.New().String(),
			DocumentID:    doc.ID,
			DocTypeSent:   docTypeSent(doc.DocType),
			HTTPStatus:    httpStatus,
			Outcome:       model.OutcomeFailed,
			ErrorMessage:  &msg,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("record failed ai request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logJSON(r.loc, map[string]any{
		"component":     "jobs",
		"event":         "extraction_failed",
		"status":        "error",
		"document_id":   doc.ID,
		"error_message": msg,
	})
	return nil
}

func docTypeSent(docType *string) string {
	if docType == nil || *docType == "" {
		return docTypeUnknown
	}
	return *docType
}

// truncateRunes shortens s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
