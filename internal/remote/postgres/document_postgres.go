package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dineshlahiru/forms.lk-sub000/internal/remote"
)

// DocumentPostgres is a PostgreSQL implementation of remote.DocumentStore.
// Documents and field children are stored as jsonb rows; both writes are
// upserts so that re-running an interrupted pipeline converges instead of
// duplicating remote state.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres store.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ remote.DocumentStore = (*DocumentPostgres)(nil)

// CreateDocument upserts a form document by its caller-supplied id. Nil
// field values are rejected before any SQL is issued; the caller is
// responsible for omitting absent optional fields.
func (s *DocumentPostgres) CreateDocument(ctx context.Context, id string, fields map[string]any) (string, error) {
	if id == "" {
		return "", fmt.Errorf("document id is required")
	}
	for k, v := range fields {
		if v == nil {
			return "", fmt.Errorf("%w: %q", remote.ErrNilField, k)
		}
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document fields: %w", err)
	}

	const q = `
		INSERT INTO form_documents (id, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var out string
	if err := s.db.QueryRowContext(ctx, q, id, body, time.Now().UTC()).Scan(&out); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	return out, nil
}

// AppendChild upserts one field child keyed by (document id, order). The
// fresh id is only used on first insert; a retry hitting an existing slot
// keeps the original child id.
func (s *DocumentPostgres) AppendChild(ctx context.Context, documentID string, field map[string]any, order int) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("document id is required")
	}
	if order < 0 {
		return "", fmt.Errorf("order must be non-negative, got %d", order)
	}

	body, err := json.Marshal(field)
	if err != nil {
		return "", fmt.Errorf("marshal field record: %w", err)
	}

	const q = `
		INSERT INTO form_document_fields (id, document_id, ord, field, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (document_id, ord) DO UPDATE SET field = EXCLUDED.field, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var out string
	if err := s.db.QueryRowContext(ctx, q, uuid.NewString(), documentID, order, body, time.Now().UTC()).Scan(&out); err != nil {
		return "", fmt.Errorf("append child: %w", err)
	}
	return out, nil
}
