// Package blob stores raw CV files in MinIO or any S3-compatible store.
package blob

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
)

// CVDir is the object prefix every uploaded CV lives under.
const CVDir = "CVs"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	// PublicURL is the base clients reach the store at. Defaults to the endpoint.
	PublicURL string
	Timeout   time.Duration
}

type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// New connects to the store and creates the bucket when it is missing.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	s := &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBase(cfg),
		timeout: cfg.Timeout,
		log:     logger.Component(log, "blob"),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, "create bucket %s", s.bucket)
	}
	s.log.Info("created bucket", zap.String("bucket", s.bucket))
	return nil
}

// Upload stores data under a fresh object name and returns its path and URL.
func (s *Store) Upload(ctx context.Context, data []byte, filename, contentType string) (string, string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	objectPath := ObjectPath(filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", errors.Wrapf(err, "upload %s", filename)
	}
	return objectPath, ObjectURL(s.baseURL, s.bucket, objectPath), nil
}

func (s *Store) Download(ctx context.Context, objectPath string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	obj, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err, objectPath)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(err, objectPath)
	}
	return data, nil
}

// Remove deletes the object. Removing a missing object is not an error.
func (s *Store) Remove(ctx context.Context, objectPath string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
	if err != nil {
		if err := s.mapErr(err, objectPath); errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return errors.Wrapf(err, "remove %s", objectPath)
	}
	return nil
}

func (s *Store) mapErr(err error, objectPath string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.NotFoundf("file %s not found in storage", objectPath)
	}
	return errors.Wrapf(err, "read %s", objectPath)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ObjectPath returns CVs/{uuid}{ext} for filename.
func ObjectPath(filename string) string {
	return CVDir + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func ObjectURL(base, bucket, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + objectPath
}

func publicBase(cfg Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	if cfg.Secure {
		return "https://" + cfg.Endpoint
	}
	return "http://" + cfg.Endpoint
}
