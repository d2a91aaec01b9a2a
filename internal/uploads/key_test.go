package uploads

import (
	"strings"
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	cases := []struct {
		name, want string
	}{
		{"review.mp4", "u1/1700000000123-xyz.mp4"},
		{"Clip.MOV", "u1/1700000000123-xyz.MOV"},
		{"noext", "u1/1700000000123-xyz"},
		{"dir/name.webm", "u1/1700000000123-xyz.webm"},
		{"../evil.mp4", "u1/1700000000123-xyz"},
	}
	for _, tc := range cases {
		if got := ObjectKey("u1", tc.name, now, "xyz"); got != tc.want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRandomSuffixIsBase36(t *testing.T) {
	a, b := RandomSuffix(), RandomSuffix()
	if a == "" || a == b {
		t.Fatalf("expected distinct suffixes, got %q and %q", a, b)
	}
	if strings.Trim(a, "0123456789abcdefghijklmnopqrstuvwxyz") != "" {
		t.Fatalf("suffix %q is not base36", a)
	}
}
