package mocks

import (
	"context"

	"medidoc/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockExtractionRepository struct {
	mock.Mock
}

func (m *MockExtractionRepository) Latest(ctx context.Context, documentID string) (*model.Extraction, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Extraction), args.Error(1)
}

func (m *MockExtractionRepository) LatestForUpdate(ctx context.Context, documentID string) (*model.Extraction, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Extraction), args.Error(1)
}

func (m *MockExtractionRepository) ExistsVersion(ctx context.Context, documentID string, version int) (bool, error) {
	args := m.Called(ctx, documentID, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockExtractionRepository) Create(ctx context.Context, ex *model.Extraction) (*model.Extraction, error) {
	args := m.Called(ctx, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Extraction), args.Error(1)
}
