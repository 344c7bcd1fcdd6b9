package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
)

// S3Store keeps objects in an S3 compatible bucket such as Cloudflare R2
// or MinIO.
type S3Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewS3Store constructs the store.
func NewS3Store(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*S3Store, error) {
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://"),
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &S3Store{client: client, bucket: bucket, logger: logger.With("component", "objectstore.s3")}, nil
}

// Put implements disease.ImageArchive.
func (s *S3Store) Put(ctx context.Context, key string, img disease.Image) error {
	return s.PutObject(ctx, key, img.Data, img.ContentType, img.Filename)
}

// PutObject uploads data under key, sniffing the content type when none was
// given.
func (s *S3Store) PutObject(ctx context.Context, key string, data []byte, contentType, filename string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: len(data) < 5*1024*1024,
		UserMetadata:     map[string]string{"original-filename": filename},
	})
	if err != nil {
		return err
	}
	s.logger.Debug("object stored", "key", key, "size", info.Size)
	return nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil || !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

var _ Store = (*S3Store)(nil)

func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
