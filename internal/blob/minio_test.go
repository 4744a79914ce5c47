package blob

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
)

func TestObjectPath(t *testing.T) {
	p := ObjectPath("Alice Smith.PDF")
	assert.True(t, strings.HasPrefix(p, "CVs/"))
	assert.True(t, strings.HasSuffix(p, ".pdf"))
	assert.Len(t, p, len("CVs/")+36+len(".pdf"))
	assert.NotEqual(t, p, ObjectPath("Alice Smith.PDF"))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "http://cdn.local/cvs/CVs/a.pdf", ObjectURL("http://cdn.local/", "cvs", "CVs/a.pdf"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://minio:9000", publicBase(Config{Endpoint: "minio:9000"}))
	assert.Equal(t, "https://s3.example.com", publicBase(Config{Endpoint: "s3.example.com", Secure: true}))
	assert.Equal(t, "https://files.example.com", publicBase(Config{Endpoint: "minio:9000", PublicURL: "https://files.example.com"}))
}

// Round trip against a live MinIO, e.g. the docker-compose one.
func TestStore_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		Bucket:    "talent-pipeline-test",
		Timeout:   10 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	path, url, err := s.Upload(ctx, []byte("cv body"), "cv.txt", "text/plain")
	require.NoError(t, err)
	assert.Contains(t, url, path)

	data, err := s.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "cv body", string(data))

	require.NoError(t, s.Remove(ctx, path))
	require.NoError(t, s.Remove(ctx, path))

	_, err = s.Download(ctx, path)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
