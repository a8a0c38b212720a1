package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) PendingList(ctx context.Context) ([]model.LocalRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LocalRecord), args.Error(1)
}

func (m *MockCoordinator) Retry(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
