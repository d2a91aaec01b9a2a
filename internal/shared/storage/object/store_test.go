package object

import (
	"io"
	"strings"
	"testing"
)

func TestSniffContentTypeReplaysBytes(t *testing.T) {
	ct, r, err := SniffContentType("", strings.NewReader("<html><body>hi</body></html>"))
	if err != nil {
		t.Fatalf("SniffContentType: %v", err)
	}
	if !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html, got %q", ct)
	}
	body, _ := io.ReadAll(r)
	if string(body) != "<html><body>hi</body></html>" {
		t.Fatalf("body not replayed: %q", body)
	}
}

func TestSniffContentTypeKeepsExplicit(t *testing.T) {
	ct, _, err := SniffContentType(" video/mp4 ", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("SniffContentType: %v", err)
	}
	if ct != "video/mp4" {
		t.Fatalf("got %q", ct)
	}
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base  string
		parts []string
		want  string
	}{
		{base: "http://localhost:8080/", parts: []string{"/files/", "videos", "u/1.mp4"}, want: "http://localhost:8080/files/videos/u/1.mp4"},
		{base: "https://cdn", parts: []string{"", "k"}, want: "https://cdn/k"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.parts...); got != tt.want {
			t.Fatalf("JoinURL(%q, %v) = %q, want %q", tt.base, tt.parts, got, tt.want)
		}
	}
}
