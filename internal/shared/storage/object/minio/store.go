package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"review-analyzer/internal/shared/storage/object"
)

// Options configures the MinIO store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

type api interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	EndpointURL() *url.URL
}

// Store implements ObjectStore on a MinIO bucket.
type Store struct {
	client api
	bucket string
}

// New connects to MinIO and creates the bucket when missing.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket exists: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &Store{client: cli, bucket: opts.Bucket}, nil
}

// Put uploads r under key unless an object with that key already exists.
// The existence check and the write are not atomic.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		return object.ErrExists
	} else if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("minio stat object bucket=%s key=%s: %w", s.bucket, key, err)
	}

	contentType, body, err := object.SniffContentType(contentType, r)
	if err != nil {
		return fmt.Errorf("read sniff: %w", err)
	}
	if size < 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return nil
}

// PublicURL assumes the bucket has a public read policy.
func (s *Store) PublicURL(key string) string {
	u := s.client.EndpointURL()
	return object.JoinURL(fmt.Sprintf("%s://%s", u.Scheme, u.Host), s.bucket, key)
}

var _ object.ObjectStore = (*Store)(nil)
