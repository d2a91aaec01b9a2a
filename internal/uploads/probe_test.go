package uploads

import (
	"testing"
	"time"
)

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration([]byte(`{"format":{"duration":"150.400000"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if FormatDuration(d) != "2:30" {
		t.Fatalf("expected 2:30, got %s", FormatDuration(d))
	}
	if _, err := parseProbeDuration([]byte(`{"format":{}}`)); err == nil {
		t.Fatalf("expected error for missing duration")
	}
	for _, raw := range []string{"NaN", "Inf", "+Inf", "-Inf", "-1", "1e300"} {
		out := []byte(`{"format":{"duration":"` + raw + `"}}`)
		if d, err := parseProbeDuration(out); err == nil {
			t.Fatalf("expected error for duration %q, got %v", raw, d)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3*time.Minute + 5*time.Second); got != "3:05" {
		t.Fatalf("got %s", got)
	}
	if got := FormatDuration(0); got != "0:00" {
		t.Fatalf("got %s", got)
	}
}
