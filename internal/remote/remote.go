package remote

import (
	"context"
	"errors"
)

// Package remote contains the clients for the remote system-of-record: an
// S3-compatible object store for document blobs and thumbnails, and a
// document database for the form records themselves. Each call is atomic on
// the remote side; there are no multi-call transactions, so the upload
// pipeline treats every call as an independent commit point.

var (
	// ErrNilField is returned by CreateDocument when the wire map carries a
	// key with a nil value; the document store rejects undefined-valued
	// fields, so callers must sanitize before the call.
	ErrNilField = errors.New("document field has nil value")
)

// ProgressFunc reports transfer progress in bytes. total is -1 when the
// total size is unknown.
type ProgressFunc func(transferred, total int64)

// BlobStore commits document blobs and derived page thumbnails. Writes are
// overwrite-by-path: re-putting the same container/language converges on
// the same object keys, which is what makes whole-pipeline retries safe.
type BlobStore interface {
	// PutBlob commits one language variant's raw document bytes and
	// returns its storage path.
	PutBlob(ctx context.Context, containerID, language string, data []byte, onProgress ProgressFunc) (string, error)

	// PutThumbnails commits the page-image thumbnails for one language
	// variant, returning one storage path per page in input order.
	PutThumbnails(ctx context.Context, containerID, language string, images [][]byte, onProgress ProgressFunc) ([]string, error)
}

// DocumentStore commits form documents and their ordered field children.
type DocumentStore interface {
	// CreateDocument upserts the document with the given id. Retrying a
	// partially failed pipeline re-issues the call with the same
	// deterministic id and must converge on a single document.
	CreateDocument(ctx context.Context, id string, fields map[string]any) (string, error)

	// AppendChild upserts one field child keyed by (document id, order);
	// order is the field's display order and is assigned by call order.
	AppendChild(ctx context.Context, documentID string, field map[string]any, order int) (string, error)
}
