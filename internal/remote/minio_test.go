package remote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dineshlahiru/forms.lk-sub000/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MinIOConfig
		wantMsg string
	}{
		{
			name:    "missing endpoint",
			cfg:     config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"},
			wantMsg: "endpoint is required",
		},
		{
			name:    "missing credentials",
			cfg:     config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"},
			wantMsg: "credentials are required",
		},
		{
			name:    "missing bucket",
			cfg:     config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"},
			wantMsg: "bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinIO(tt.cfg)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBlobKeys(t *testing.T) {
	assert.Equal(t, "forms/rec-1/si/form.pdf", BlobKey("rec-1", "si"))
	assert.Equal(t, "forms/rec-1/en/thumbs/page-001.png", ThumbnailKey("rec-1", "en", 1))
	assert.Equal(t, "forms/rec-1/en/thumbs/page-012.png", ThumbnailKey("rec-1", "en", 12))
}

func TestProgressReader(t *testing.T) {
	var got [][2]int64
	r := newProgressReader(strings.NewReader("hello world"), 11, func(transferred, total int64) {
		got = append(got, [2]int64{transferred, total})
	})

	buf := make([]byte, 4)
	for {
		if _, err := r.Read(buf); err != nil {
			break
		}
	}

	assert.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, int64(11), last[0], "final callback reports all bytes transferred")
	assert.Equal(t, int64(11), last[1])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i][0], got[i-1][0], "transferred bytes are non-decreasing")
	}
}

func TestProgressReader_NilCallbackPassthrough(t *testing.T) {
	src := strings.NewReader("data")
	assert.Equal(t, src, newProgressReader(src, 4, nil))
}
