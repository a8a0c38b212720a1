package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, rec *model.LocalRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, id string) (*model.LocalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LocalRecord), args.Error(1)
}

func (m *MockStore) List(ctx context.Context) ([]model.LocalRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LocalRecord), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SetStatus(ctx context.Context, id string, status model.UploadStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
