package mocks

import (
	"context"

	"medidoc/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAiRequestRepository struct {
	mock.Mock
}

func (m *MockAiRequestRepository) Create(ctx context.Context, req *model.AiRequest) (*model.AiRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AiRequest), args.Error(1)
}
