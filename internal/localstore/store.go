package localstore

import (
	"context"
	"errors"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

// Package localstore is the durable local persistence layer for form records
// awaiting remote commit. Writes are synchronous: every method returns only
// after the change is durable. The store is the sole writer of a record's
// upload status and enforces transition legality.

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidStatus     = errors.New("invalid upload status")
	ErrInvalidTransition = errors.New("illegal status transition")
)

// Store is the local record store contract. List is the only enumeration
// primitive; callers filter in memory. Writes are last-writer-wins per id,
// so callers must serialize status updates for a given id through the
// upload coordinator.
type Store interface {
	// Put inserts or fully replaces a record. UpdatedAt is rewritten; a
	// zero CreatedAt is set to the current time.
	Put(ctx context.Context, rec *model.LocalRecord) error

	// Get returns a record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.LocalRecord, error)

	// List returns all records, oldest first.
	List(ctx context.Context) ([]model.LocalRecord, error)

	// Remove deletes a record by id. Missing rows are not an error.
	Remove(ctx context.Context, id string) error

	// SetStatus transitions a record's upload status, storing errMsg when
	// status is error and clearing it otherwise. Returns
	// ErrInvalidTransition for edges not permitted by the status machine.
	SetStatus(ctx context.Context, id string, status model.UploadStatus, errMsg string) error

	Close() error
}
