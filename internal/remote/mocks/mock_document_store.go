package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, id string, fields map[string]any) (string, error) {
	args := m.Called(ctx, id, fields)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) AppendChild(ctx context.Context, documentID string, field map[string]any, order int) (string, error) {
	args := m.Called(ctx, documentID, field, order)
	return args.String(0), args.Error(1)
}
