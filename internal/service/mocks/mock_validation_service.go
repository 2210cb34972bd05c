package mocks

import (
	"context"

	"medidoc/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) Submit(ctx context.Context, req service.ValidationRequest) (*service.ValidationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ValidationResult), args.Error(1)
}
