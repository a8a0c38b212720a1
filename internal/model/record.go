package model

import "time"

// Package model contains the domain types for the durable upload pipeline.
// These are pure data structures with no persistence or transport tags beyond
// JSON; they can be used across layers (localstore, sync, HTTP) without
// coupling to any backend.

// ContactInfo carries the optional contact details declared on a form.
// Empty values mean "not provided" and are omitted from remote documents.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// FieldPosition is a normalized placement of a field on a page, expressed in
// page-percentage coordinates (0-100).
type FieldPosition struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldSpec describes one fillable field of a digitized form. Slice order in
// FormPayload.Fields is the field's display order and must be preserved on
// the remote side.
type FieldSpec struct {
	Type     string            `json:"type"`
	Labels   map[string]string `json:"labels"`
	Required bool              `json:"required"`
	Position *FieldPosition    `json:"position,omitempty"`
}

// FormPayload is the form's metadata as produced by the digitizer.
type FormPayload struct {
	Title           string      `json:"title"`
	CategoryID      string      `json:"category_id"`
	InstitutionID   string      `json:"institution_id"`
	ContactInfo     ContactInfo `json:"contact_info"`
	Tags            []string    `json:"tags,omitempty"`
	Languages       []string    `json:"languages"`
	DefaultLanguage string      `json:"default_language"`
	Fields          []FieldSpec `json:"fields,omitempty"`
}

// BlobVariant is one language rendition of the form document: the raw PDF
// bytes plus page-image thumbnails derived by the (external) rasterizer.
// PageCount is supplied by the producer; rendering is out of scope here.
type BlobVariant struct {
	Language   string   `json:"language"`
	PDF        []byte   `json:"pdf,omitempty"`
	PageCount  int      `json:"page_count"`
	Thumbnails [][]byte `json:"thumbnails,omitempty"`
}

// LocalRecord is the unit of work of the pipeline: a digitized form stored
// locally before (and independent of) remote commitment. The local store is
// the sole source of truth for a record until its status reaches completed.
type LocalRecord struct {
	ID           string        `json:"id"`
	Payload      FormPayload   `json:"payload"`
	PrimaryBlob  *BlobVariant  `json:"primary_blob,omitempty"`
	VariantBlobs []BlobVariant `json:"variant_blobs,omitempty"`
	UploadStatus UploadStatus  `json:"upload_status"`
	UploadError  string        `json:"upload_error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// RemoteVariant maps a language to its committed remote storage state. It is
// produced as a side effect of a successful blob commit and is not
// authoritative until the owning stage has returned success.
type RemoteVariant struct {
	Language       string   `json:"language"`
	StoragePath    string   `json:"storage_path"`
	PageCount      int      `json:"page_count"`
	ByteSize       int64    `json:"byte_size"`
	ThumbnailPaths []string `json:"thumbnail_paths,omitempty"`
}
