package handler

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dineshlahiru/forms.lk-sub000/internal/localstore"
	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
	"github.com/dineshlahiru/forms.lk-sub000/internal/upload"
)

// queueItem is the operator-facing view of one local record. Blob bytes
// never leave the daemon; only sync bookkeeping is exposed.
type queueItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	UploadError string `json:"upload_error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type queueListResult struct {
	Items []queueItem `json:"items"`
	Total int         `json:"total"`
}

type retryResult struct {
	RecordID   string `json:"record_id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// RegisterRoutes attaches the operator HTTP routes to the provided Fiber app.
// Keep handlers minimal; queue semantics live in the upload package.
func RegisterRoutes(app *fiber.App, db *sql.DB, coord upload.Coordinator, bus *upload.Broadcaster) {
	app.Get("/healthz", LivenessProbe())
	app.Get("/health", HealthCheck(db))
	app.Get("/queue", ListQueue(coord))
	app.Post("/queue/:id/retry", RetryUpload(coord))
	app.Get("/queue/events", QueueEvents(bus))
}

// LivenessProbe reports process liveness only.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// HealthCheck reports readiness: the remote document database must answer
// a ping. The local store needs no check here, opening it is part of boot.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// ListQueue returns every record still awaiting remote commit, including
// failed ones.
func ListQueue(coord upload.Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := coord.PendingList(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		items := make([]queueItem, 0, len(recs))
		for _, rec := range recs {
			items = append(items, queueItem{
				ID:          rec.ID,
				Title:       rec.Payload.Title,
				Status:      string(rec.UploadStatus),
				UploadError: rec.UploadError,
				CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
				UpdatedAt:   rec.UpdatedAt.Format(time.RFC3339),
			})
		}
		return c.JSON(queueListResult{Items: items, Total: len(items)})
	}
}

// RetryUpload re-runs the upload pipeline for one record and blocks until
// the attempt finishes. Progress is observable on /queue/events meanwhile.
func RetryUpload(coord upload.Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		docID, err := coord.Retry(c.UserContext(), id)
		if err != nil {
			switch {
			case errors.Is(err, localstore.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "record not found")
			case errors.Is(err, upload.ErrAlreadyInFlight):
				return writeError(c, fiber.StatusConflict, "ALREADY_IN_FLIGHT", "an upload attempt is already running")
			case errors.Is(err, upload.ErrAlreadyCompleted):
				return writeError(c, fiber.StatusConflict, "ALREADY_COMPLETED", "record already uploaded")
			default:
				// The failure detail is persisted on the record and
				// broadcast to status observers; the HTTP body stays safe.
				return writeError(c, fiber.StatusBadGateway, "UPLOAD_FAILED", "upload attempt failed")
			}
		}
		return c.JSON(retryResult{
			RecordID:   id,
			DocumentID: docID,
			Status:     string(model.StatusCompleted),
		})
	}
}

// QueueEvents streams upload progress as server-sent events. An optional
// record_id query parameter narrows the stream to one record. Events are
// live only; history is not replayed.
func QueueEvents(bus *upload.Broadcaster) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recordID := c.Query("record_id")

		// Buffered so a stalled client cannot block publishers; a client
		// that falls this far behind loses events rather than the stream.
		events := make(chan model.UploadProgress, 64)
		unsubscribe := bus.Subscribe(func(p model.UploadProgress) {
			if recordID != "" && p.RecordID != recordID {
				return
			}
			select {
			case events <- p:
			default:
			}
		})

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()

			heartbeat := time.NewTicker(15 * time.Second)
			defer heartbeat.Stop()

			for {
				select {
				case p := <-events:
					data, err := json.Marshal(p)
					if err != nil {
						continue
					}
					fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
				case <-heartbeat.C:
					// Comment line keeps intermediaries from timing out
					// and surfaces dead connections on Flush.
					fmt.Fprint(w, ": ping\n\n")
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		})
		return nil
	}
}
