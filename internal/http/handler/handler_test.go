package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/forms.lk-sub000/internal/localstore"
	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
	"github.com/dineshlahiru/forms.lk-sub000/internal/upload"
	uploadMocks "github.com/dineshlahiru/forms.lk-sub000/internal/upload/mocks"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListQueue(t *testing.T) {
	mockCoord := new(uploadMocks.MockCoordinator)
	app := fiber.New()
	app.Get("/queue", ListQueue(mockCoord))

	t.Run("success", func(t *testing.T) {
		now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		recs := []model.LocalRecord{
			{
				ID:           "rec-1",
				Payload:      model.FormPayload{Title: "Passport Application"},
				UploadStatus: model.StatusPending,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				ID:           "rec-2",
				Payload:      model.FormPayload{Title: "Land Deed Transfer"},
				UploadStatus: model.StatusError,
				UploadError:  "upload thumbnails (si): bucket quota exceeded",
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		}
		mockCoord.On("PendingList", mock.Anything).Return(recs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/queue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result queueListResult
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result.Items, 2)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, "pending", result.Items[0].Status)
		assert.Equal(t, "Passport Application", result.Items[0].Title)
		assert.Equal(t, "error", result.Items[1].Status)
		assert.Contains(t, result.Items[1].UploadError, "bucket quota exceeded")
		mockCoord.AssertExpectations(t)
	})

	t.Run("empty queue", func(t *testing.T) {
		mockCoord.On("PendingList", mock.Anything).Return([]model.LocalRecord{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/queue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result queueListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Empty(t, result.Items)
		assert.Equal(t, 0, result.Total)
		mockCoord.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		mockCoord.On("PendingList", mock.Anything).Return(nil, errors.New("disk error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/queue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockCoord.AssertExpectations(t)
	})
}

func TestRetryUpload(t *testing.T) {
	mockCoord := new(uploadMocks.MockCoordinator)
	app := fiber.New()
	app.Post("/queue/:id/retry", RetryUpload(mockCoord))

	t.Run("success", func(t *testing.T) {
		docID := upload.RemoteDocumentID("rec-1")
		mockCoord.On("Retry", mock.Anything, "rec-1").Return(docID, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/queue/rec-1/retry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result retryResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "rec-1", result.RecordID)
		assert.Equal(t, docID, result.DocumentID)
		assert.Equal(t, "completed", result.Status)
		mockCoord.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockCoord.On("Retry", mock.Anything, "ghost").Return("", localstore.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/queue/ghost/retry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockCoord.AssertExpectations(t)
	})

	t.Run("already in flight", func(t *testing.T) {
		mockCoord.On("Retry", mock.Anything, "rec-1").Return("", upload.ErrAlreadyInFlight).Once()

		req := httptest.NewRequest(http.MethodPost, "/queue/rec-1/retry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ALREADY_IN_FLIGHT", res.Error.Code)
		mockCoord.AssertExpectations(t)
	})

	t.Run("already completed", func(t *testing.T) {
		mockCoord.On("Retry", mock.Anything, "rec-1").Return("", upload.ErrAlreadyCompleted).Once()

		req := httptest.NewRequest(http.MethodPost, "/queue/rec-1/retry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ALREADY_COMPLETED", res.Error.Code)
		mockCoord.AssertExpectations(t)
	})

	t.Run("attempt fails", func(t *testing.T) {
		mockCoord.On("Retry", mock.Anything, "rec-1").
			Return("", errors.New("upload document (si): connection refused")).Once()

		req := httptest.NewRequest(http.MethodPost, "/queue/rec-1/retry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPLOAD_FAILED", res.Error.Code)
		// Internal detail stays out of the HTTP body.
		assert.NotContains(t, res.Error.Message, "connection refused")
		mockCoord.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockCoord := new(uploadMocks.MockCoordinator)
	RegisterRoutes(app, nil, mockCoord, upload.NewBroadcaster())

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Queue listing only allows GET
		req := httptest.NewRequest(http.MethodPut, "/queue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
