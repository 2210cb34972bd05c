package extractor

import (
	"context"
	"fmt"
	"io"

	"medidoc/internal/model"
)

// Extractor calls the external OCR/AI service that turns a document file
// into structured field values.
type Extractor interface {
	Extract(ctx context.Context, file io.Reader, filename, docType string) (*model.ExtractionResult, error)
}

// TransportError is returned when the extraction service is unreachable or
// answers with a non-2xx status. Body carries the raw response so the
// failure can be audited verbatim.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("extractor unreachable: %s", e.Body)
	}
	return fmt.Sprintf("extractor returned status %d: %s", e.StatusCode, e.Body)
}
