package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dineshlahiru/forms.lk-sub000/internal/config"
)

// minioBlobStore implements BlobStore on an S3-compatible backend (MinIO,
// AWS S3, etc.). It is safe for concurrent use by multiple goroutines.
type minioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible blob store client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	bs := &minioBlobStore{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return bs, nil
}

// BlobKey returns the object key for a language variant's document blob.
// Keys are deterministic so that re-uploads overwrite rather than duplicate.
func BlobKey(containerID, language string) string {
	return fmt.Sprintf("forms/%s/%s/form.pdf", containerID, language)
}

// ThumbnailKey returns the object key for one page thumbnail (1-based page).
func ThumbnailKey(containerID, language string, page int) string {
	return fmt.Sprintf("forms/%s/%s/thumbs/page-%03d.png", containerID, language, page)
}

func (m *minioBlobStore) PutBlob(ctx context.Context, containerID, language string, data []byte, onProgress ProgressFunc) (string, error) {
	key := BlobKey(containerID, language)
	r := newProgressReader(bytes.NewReader(data), int64(len(data)), onProgress)

	_, err := m.client.PutObject(ctx, m.bucket, key, r, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
		UserMetadata: map[string]string{
			"form-language": language,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put blob %s: %w", key, err)
	}
	return key, nil
}

func (m *minioBlobStore) PutThumbnails(ctx context.Context, containerID, language string, images [][]byte, onProgress ProgressFunc) ([]string, error) {
	var total int64
	for _, img := range images {
		total += int64(len(img))
	}

	paths := make([]string, 0, len(images))
	var transferred int64
	for i, img := range images {
		key := ThumbnailKey(containerID, language, i+1)
		_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(img), int64(len(img)), minio.PutObjectOptions{
			ContentType: "image/png",
		})
		if err != nil {
			return nil, fmt.Errorf("put thumbnail %s: %w", key, err)
		}
		paths = append(paths, key)
		transferred += int64(len(img))
		if onProgress != nil {
			onProgress(transferred, total)
		}
	}
	return paths, nil
}

// progressReader invokes a ProgressFunc as bytes are consumed by the
// uploader.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	fn          ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		p.fn(p.transferred, p.total)
	}
	return n, err
}
