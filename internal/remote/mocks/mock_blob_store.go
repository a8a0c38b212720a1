package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dineshlahiru/forms.lk-sub000/internal/remote"
)

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) PutBlob(ctx context.Context, containerID, language string, data []byte, onProgress remote.ProgressFunc) (string, error) {
	args := m.Called(ctx, containerID, language, data, onProgress)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) PutThumbnails(ctx context.Context, containerID, language string, images [][]byte, onProgress remote.ProgressFunc) ([]string, error) {
	args := m.Called(ctx, containerID, language, images, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
