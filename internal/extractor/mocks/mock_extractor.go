package mocks

import (
	"context"
	"io"

	"medidoc/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, file io.Reader, filename, docType string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, file, filename, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}
