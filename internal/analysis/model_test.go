package analysis

import "testing"

func TestNewMedia(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url, platform  string
		wantEmbeddable bool
		wantURL        string
	}{
		{name: "embeddable", url: "https://youtube.com/embed/x", platform: "youtube", wantEmbeddable: true, wantURL: "https://youtube.com/embed/x"},
		{name: "marker", url: "not_embeddable", platform: "tiktok", wantEmbeddable: false},
		{name: "missing", url: "", platform: "", wantEmbeddable: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMedia(tt.url, tt.platform)
			if m.Embeddable != tt.wantEmbeddable || m.EmbedURL != tt.wantURL || m.Platform != tt.platform {
				t.Fatalf("NewMedia(%q, %q) = %+v", tt.url, tt.platform, m)
			}
		})
	}
}

func TestParseTrend(t *testing.T) {
	cases := map[string]Trend{"UP": TrendUp, " down ": TrendDown, "neutral": TrendNeutral, "sideways": TrendNone, "": TrendNone}
	for in, want := range cases {
		if got := ParseTrend(in); got != want {
			t.Fatalf("ParseTrend(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizedFillsNilCollections(t *testing.T) {
	r := Result{Title: "t", SentimentDetails: map[string]FeatureSentiment{"camera": {Sentiment: "neutral"}}}
	n := r.Normalized()
	if n.Stats == nil {
		t.Fatalf("expected non-nil stats")
	}
	if n.SentimentDetails["camera"].RelevantText == nil {
		t.Fatalf("expected non-nil relevant text")
	}
}
