package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"

	"review-analyzer/internal/shared/storage/object"
)

type fakeAPI struct {
	existing map[string]bool
	statErr  error
	puts     []string
	putBody  string
	putType  string
}

func (f *fakeAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	if f.existing[key] {
		return minio.ObjectInfo{Key: key}, nil
	}
	return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
}

func (f *fakeAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(r)
	f.puts = append(f.puts, bucket+"/"+key)
	f.putBody = string(data)
	f.putType = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeAPI) EndpointURL() *url.URL {
	return &url.URL{Scheme: "http", Host: "minio:9000"}
}

func TestPutUploadsNewKey(t *testing.T) {
	fake := &fakeAPI{existing: map[string]bool{}}
	store := &Store{client: fake, bucket: "videos"}

	if err := store.Put(context.Background(), "u/1-a.mp4", "video/mp4", strings.NewReader("data"), 4); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(fake.puts) != 1 || fake.puts[0] != "videos/u/1-a.mp4" {
		t.Fatalf("unexpected puts: %v", fake.puts)
	}
	if fake.putBody != "data" || fake.putType != "video/mp4" {
		t.Fatalf("unexpected body/type: %q %q", fake.putBody, fake.putType)
	}
}

func TestPutRefusesExistingKey(t *testing.T) {
	fake := &fakeAPI{existing: map[string]bool{"u/1-a.mp4": true}}
	store := &Store{client: fake, bucket: "videos"}

	err := store.Put(context.Background(), "u/1-a.mp4", "video/mp4", strings.NewReader("data"), 4)
	if !errors.Is(err, object.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if len(fake.puts) != 0 {
		t.Fatalf("expected no put, got %v", fake.puts)
	}
}

func TestPutSurfacesStatFailure(t *testing.T) {
	fake := &fakeAPI{statErr: minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}
	store := &Store{client: fake, bucket: "videos"}

	err := store.Put(context.Background(), "u/1-a.mp4", "", strings.NewReader("data"), 4)
	if err == nil || errors.Is(err, object.ErrExists) {
		t.Fatalf("expected stat failure, got %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	store := &Store{client: &fakeAPI{}, bucket: "videos"}
	if got := store.PublicURL("u/1-a.mp4"); got != "http://minio:9000/videos/u/1-a.mp4" {
		t.Fatalf("PublicURL = %q", got)
	}
}
