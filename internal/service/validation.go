package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medidoc/internal/database"
	"medidoc/internal/model"
	"medidoc/internal/repository"
)

// TxRepos bundles the repositories bound to one transaction handle, so every
// write of a validation submission commits or rolls back together.
type TxRepos struct {
	Docs        repository.DocumentRepository
	Extractions repository.ExtractionRepository
	Corrections repository.FieldCorrectionRepository
}

// TxReposFactory builds transaction-scoped repositories. In production it
// wraps the postgres constructors; tests substitute mocks.
type TxReposFactory func(tx repository.DBTX) TxRepos

// ValidationRequest is one reviewer submission against a processed document.
// Fields is a partial overlay: absent keys keep the extracted value, explicit
// nulls clear it. ValidatedBy is nil for unauthenticated submissions.
type ValidationRequest struct {
	DocumentID  string
	Fields      model.FieldPatch
	ValidatedBy *string
}

// ValidationResult reports an accepted submission.
type ValidationResult struct {
	Message  string
	Document *model.Document
	Version  int
	Fields   model.DocumentFields
	Warnings []string
}

// ValidationService carries documents from PROCESSED to VALIDATED.
type ValidationService interface {
	// Submit runs the whole correction-and-validation flow in a single
	// transaction. Any rejection leaves the document untouched.
	Submit(ctx context.Context, req ValidationRequest) (*ValidationResult, error)
}

type validationService struct {
	db    *sql.DB
	repos TxReposFactory
	rules *BusinessRuleValidator
}

// NewValidationService constructs a ValidationService.
func NewValidationService(db *sql.DB, repos TxReposFactory, rules *BusinessRuleValidator) ValidationService {
	return &validationService{db: db, repos: repos, rules: rules}
}

func (s *validationService) Submit(ctx context.Context, req ValidationRequest) (*ValidationResult, error) {
	if req.DocumentID == "" {
		return nil, ErrIDRequired
	}

	var result *ValidationResult

	// A concurrent submission can win the race for the next version number.
	// The loser rolls back and retries once against the fresh latest row;
	// it then fails the eligibility guard if the winner already validated.
	for attempt := 0; attempt < 2; attempt++ {
		err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
			var txErr error
			result, txErr = s.submitOnce(ctx, s.repos(tx), req)
			return txErr
		})
		if errors.Is(err, repository.ErrVersionConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, repository.ErrVersionConflict
}

func (s *validationService) submitOnce(ctx context.Context, r TxRepos, req ValidationRequest) (*ValidationResult, error) {
	doc, err := r.Docs.FindByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.Status != model.StatusProcessed {
		return nil, ErrNotEligible
	}

	latest, err := r.Extractions.LatestForUpdate(ctx, doc.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoExtraction
		}
		return nil, err
	}
	if latest.AiRequestID == "" {
		return nil, ErrMissingCorrelation
	}

	merged, err := req.Fields.Apply(latest.Result.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	warnings, err := s.rules.Evaluate(merged)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	for _, fc := range diffFields(doc.ID, latest.Result.Fields, merged, req.ValidatedBy) {
		fc.ID = uuid.New().String()
		fc.CreatedAt = now
		if _, err := r.Corrections.Create(ctx, &fc); err != nil {
			return nil, fmt.Errorf("record correction: %w", err)
		}
	}

	newResult := latest.Result
	newResult.Fields = merged

	created, err := r.Extractions.Create(ctx, &model.Extraction{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		AiRequestID: latest.AiRequestID,
		Version:     latest.Version + 1,
		Result:      newResult,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	if err := r.Docs.MarkValidated(ctx, doc.ID, req.ValidatedBy, now); err != nil {
		return nil, fmt.Errorf("mark validated: %w", err)
	}

	validated := *doc
	validated.Status = model.StatusValidated
	validated.ErrorMessage = nil
	validated.ValidatedBy = req.ValidatedBy
	validated.ValidatedAt = &now
	validated.UpdatedAt = now

	return &ValidationResult{
		Message:  "Document validated successfully.",
		Document: &validated,
		Version:  created.Version,
		Fields:   merged,
		Warnings: warnings,
	}, nil
}
