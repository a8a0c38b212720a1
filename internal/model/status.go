package model

// UploadStatus is the coarse remote-commit state persisted with a record.
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusCompleted UploadStatus = "completed"
	StatusError     UploadStatus = "error"
)

// Valid reports whether s is one of the four known statuses.
func (s UploadStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUploading, StatusCompleted, StatusError:
		return true
	}
	return false
}

// CanTransitionTo reports whether the edge s -> next is legal. The only
// edges are pending->uploading, uploading->{completed,error} and the retry
// edge error->uploading. completed is terminal. A same-status write is
// treated as a legal no-op so that a crashed attempt left at uploading can
// be re-driven from stage one after restart.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return s != StatusCompleted
	}
	switch s {
	case StatusPending:
		return next == StatusUploading
	case StatusUploading:
		return next == StatusCompleted || next == StatusError
	case StatusError:
		return next == StatusUploading
	case StatusCompleted:
		return false
	}
	return false
}
