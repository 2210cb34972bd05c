package mocks

import (
	"context"

	"medidoc/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockFieldCorrectionRepository struct {
	mock.Mock
}

func (m *MockFieldCorrectionRepository) Create(ctx context.Context, fc *model.FieldCorrection) (*model.FieldCorrection, error) {
	args := m.Called(ctx, fc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FieldCorrection), args.Error(1)
}

func (m *MockFieldCorrectionRepository) ListByDocument(ctx context.Context, documentID string) ([]model.FieldCorrection, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FieldCorrection), args.Error(1)
}
