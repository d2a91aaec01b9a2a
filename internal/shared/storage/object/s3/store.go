package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"review-analyzer/internal/shared/storage/object"
)

// Options configures the S3 store. Endpoint switches to path-style
// addressing for S3-compatible services. AccessKey and SecretKey override
// the default credential chain.
type Options struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Store implements ObjectStore using Amazon S3.
type Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	region   string
	endpoint string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   normalizePrefix(opts.Prefix),
		region:   cfg.Region,
		endpoint: endpoint,
	}, nil
}

// Put uploads r under key. The conditional write makes S3 reject the
// request when the key already exists.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	contentType, body, err := object.SniffContentType(contentType, r)
	if err != nil {
		return fmt.Errorf("read sniff: %w", err)
	}

	objectKey := applyPrefix(s.prefix, key)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return object.ErrExists
		}
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

// PublicURL returns the object URL, path-style when a custom endpoint is set.
func (s *Store) PublicURL(key string) string {
	objectKey := applyPrefix(s.prefix, key)
	if s.endpoint != "" {
		return object.JoinURL(s.endpoint, s.bucket, objectKey)
	}
	host := fmt.Sprintf("https://%s.s3.amazonaws.com", s.bucket)
	if s.region != "" {
		host = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
	}
	return object.JoinURL(host, objectKey)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
