package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"medidoc/internal/model"
	"medidoc/internal/repository"
	"medidoc/internal/storage"
)

// presignExpiry bounds how long a generated download link stays usable.
const presignExpiry = 15 * time.Minute

// Dispatcher enqueues background extraction work for a document. The upload
// path calls it only after the document row has been committed.
type Dispatcher interface {
	Enqueue(documentID string)
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ExtractionView is the client-facing projection of one extraction version.
type ExtractionView struct {
	Version    int                  `json:"version"`
	Fields     model.DocumentFields `json:"fields"`
	Confidence map[string]float64   `json:"confidence"`
	Warnings   []string             `json:"warnings"`
	Meta       model.ExtractionMeta `json:"meta"`
}

// DocumentDetail combines a document with its authoritative extraction and
// correction history.
type DocumentDetail struct {
	Document         *model.Document         `json:"document"`
	LatestExtraction *ExtractionView         `json:"latest_extraction"`
	Corrections      []model.FieldCorrection `json:"corrections"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the content in object storage, saves metadata, and
	// enqueues background extraction once the row is committed. Storage is
	// rolled back if the DB save fails.
	Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64, docType *string) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Detail returns a document with its latest extraction and corrections.
	Detail(ctx context.Context, id string) (*DocumentDetail, error)

	// Delete removes a document from both storage and the repository.
	Delete(ctx context.Context, id string) error

	// DownloadURL returns a time-limited presigned URL for the stored file.
	DownloadURL(ctx context.Context, id string) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store       storage.Storage
	docs        repository.DocumentRepository
	extractions repository.ExtractionRepository
	corrections repository.FieldCorrectionRepository
	dispatcher  Dispatcher
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	extractions repository.ExtractionRepository,
	corrections repository.FieldCorrectionRepository,
	dispatcher Dispatcher,
) DocumentService {
	return &documentService{
		store:       store,
		docs:        docs,
		extractions: extractions,
		corrections: corrections,
		dispatcher:  dispatcher,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64, docType *string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	now := time.Now().UTC()
	key := storage.ObjectKey(now, originalFilename)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:               uuid.New().String(),
		OriginalFilename: originalFilename,
		StoragePath:      objInfo.Key,
		MimeType:         contentType,
		Size:             objInfo.Size,
		DocType:          docType,
		Status:           model.StatusUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// The row is committed at this point; a worker picking the job up
	// immediately will see it.
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(stored.ID)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Detail returns the document together with its highest-version extraction
// and the full correction history. A document with no extraction yet comes
// back with a nil LatestExtraction.
func (s *documentService) Detail(ctx context.Context, id string) (*DocumentDetail, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{Document: doc}

	latest, err := s.extractions.Latest(ctx, id)
	switch {
	case err == nil:
		detail.LatestExtraction = newExtractionView(latest)
	case errors.Is(err, sql.ErrNoRows):
		// document not yet processed
	default:
		return nil, err
	}

	corrections, err := s.corrections.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Corrections = corrections
	return detail, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// storage reference is not lost.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.docs.Delete(ctx, id)
}

// DownloadURL presigns a GET for the document's stored object.
func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, doc.StoragePath, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

func newExtractionView(ex *model.Extraction) *ExtractionView {
	return &ExtractionView{
		Version:    ex.Version,
		Fields:     ex.Result.Fields,
		Confidence: ex.Result.Confidence,
		Warnings:   ex.Result.Warnings,
		Meta:       ex.Result.Meta,
	}
}
