package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// recordBlobs is the serialized shape of a record's binary payloads. JSON
// base64-encodes the byte slices, which keeps the whole record in two
// columns without a separate blob table.
type recordBlobs struct {
	Primary  *model.BlobVariant  `json:"primary,omitempty"`
	Variants []model.BlobVariant `json:"variants,omitempty"`
}

// sqliteStore implements Store on an embedded SQLite database. With
// synchronous=FULL every committed write has reached disk before the call
// returns, which is the durability contract the pipeline depends on.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the record store at path.
func OpenSQLite(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("local store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// The store is accessed from multiple goroutines but sqlite likes a
	// single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Put(ctx context.Context, rec *model.LocalRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	if rec.UploadStatus == "" {
		rec.UploadStatus = model.StatusPending
	}
	if !rec.UploadStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, rec.UploadStatus)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	blobs, err := json.Marshal(recordBlobs{Primary: rec.PrimaryBlob, Variants: rec.VariantBlobs})
	if err != nil {
		return fmt.Errorf("marshal blobs: %w", err)
	}

	const q = `
		INSERT INTO records (id, payload, blobs, upload_status, upload_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			blobs = excluded.blobs,
			upload_status = excluded.upload_status,
			upload_error = excluded.upload_error,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, q,
		rec.ID,
		string(payload),
		string(blobs),
		string(rec.UploadStatus),
		rec.UploadError,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*model.LocalRecord, error) {
	const q = `
		SELECT id, payload, blobs, upload_status, upload_error, created_at, updated_at
		FROM records WHERE id = ?
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *sqliteStore) List(ctx context.Context) ([]model.LocalRecord, error) {
	const q = `
		SELECT id, payload, blobs, upload_status, upload_error, created_at, updated_at
		FROM records ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LocalRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sqliteStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	return err
}

func (s *sqliteStore) SetStatus(ctx context.Context, id string, status model.UploadStatus, errMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status != model.StatusError {
		errMsg = ""
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT upload_status FROM records WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if !model.UploadStatus(current).CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE records SET upload_status = ?, upload_error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.LocalRecord, error) {
	var (
		rec                  model.LocalRecord
		payload, blobs       string
		status, errMsg       string
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &payload, &blobs, &status, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload for %s: %w", rec.ID, err)
	}
	if blobs != "" {
		var rb recordBlobs
		if err := json.Unmarshal([]byte(blobs), &rb); err != nil {
			return nil, fmt.Errorf("unmarshal blobs for %s: %w", rec.ID, err)
		}
		rec.PrimaryBlob = rb.Primary
		rec.VariantBlobs = rb.Variants
	}
	rec.UploadStatus = model.UploadStatus(status)
	rec.UploadError = errMsg

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", rec.ID, err)
	}
	return &rec, nil
}
