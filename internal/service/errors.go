package service

import "errors"

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")

	// ErrNotEligible rejects validation submissions against any status other
	// than PROCESSED. The submission leaves no trace.
	ErrNotEligible = errors.New("document is not eligible for validation")

	// ErrNoExtraction means a PROCESSED document has no extraction rows,
	// which the pipeline should make impossible.
	ErrNoExtraction = errors.New("no extraction found for document")

	// ErrMissingCorrelation means the latest extraction has no originating
	// ai request id, breaking the causal link new versions depend on.
	ErrMissingCorrelation = errors.New("latest extraction has no originating ai request")

	// ErrInvalidAmount is the blocking business-rule violation. The message
	// is user-facing and returned verbatim.
	ErrInvalidAmount = errors.New("Amount must be positive.")

	// ErrInvalidFields covers submitted corrections that cannot be decoded
	// into the field contract (e.g. a non-numeric total_ttc).
	ErrInvalidFields = errors.New("invalid corrected fields")
)
