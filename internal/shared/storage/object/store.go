package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("object already exists")

// ObjectStore is the bucket-scoped storage gateway used for uploaded videos.
// Put never overwrites an existing object.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	PublicURL(key string) string
}

// SniffContentType returns contentType when set, otherwise detects it from
// the first 512 bytes. The returned reader replays the sniffed bytes.
func SniffContentType(contentType string, r io.Reader) (string, io.Reader, error) {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return ct, r, nil
	}
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	return http.DetectContentType(sniff[:n]), io.MultiReader(bytes.NewReader(sniff[:n]), r), nil
}

// JoinURL joins a base URL and slash-separated parts without doubling slashes.
func JoinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}
