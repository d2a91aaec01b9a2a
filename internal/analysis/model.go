package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Trend is the direction marker attached to a statistic.
type Trend string

const (
	TrendNone    Trend = ""
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// NotEmbeddable is the embed URL marker for platforms that forbid embedding.
const NotEmbeddable = "NOT_EMBEDDABLE"

// ParseTrend maps free text onto a Trend; unknown values become TrendNone.
func ParseTrend(raw string) Trend {
	switch Trend(strings.ToLower(strings.TrimSpace(raw))) {
	case TrendUp:
		return TrendUp
	case TrendDown:
		return TrendDown
	case TrendNeutral:
		return TrendNeutral
	default:
		return TrendNone
	}
}

// Stat is one labeled statistic of a result.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend Trend  `json:"trend,omitempty"`
}

// FeatureSentiment is the sentiment verdict for one product feature.
type FeatureSentiment struct {
	Sentiment    string   `json:"sentiment"`
	Confidence   float64  `json:"confidence"`
	RelevantText []string `json:"relevant_text"`
}

// Result is the display model produced by either workflow. It is never
// mutated after construction.
type Result struct {
	Title             string                      `json:"title"`
	Stats             []Stat                      `json:"stats"`
	FullTranscription string                      `json:"fullTranscription"`
	SentimentDetails  map[string]FeatureSentiment `json:"sentimentDetails"`
}

// Normalized returns a copy with nil collections replaced by empty ones.
func (r Result) Normalized() Result {
	out := r
	out.Stats = make([]Stat, len(r.Stats))
	copy(out.Stats, r.Stats)
	out.SentimentDetails = make(map[string]FeatureSentiment, len(r.SentimentDetails))
	for k, v := range r.SentimentDetails {
		if v.RelevantText == nil {
			v.RelevantText = []string{}
		} else {
			v.RelevantText = append([]string(nil), v.RelevantText...)
		}
		out.SentimentDetails[k] = v
	}
	return out
}

// Media describes where the analyzed video can be played back.
type Media struct {
	EmbedURL   string `json:"embedUrl"`
	Platform   string `json:"platform"`
	Embeddable bool   `json:"embeddable"`
}

// NewMedia builds a Media value; an empty URL or the NotEmbeddable marker
// yields a non-embeddable reference.
func NewMedia(embedURL, platform string) Media {
	embedURL = strings.TrimSpace(embedURL)
	embeddable := embedURL != "" && !strings.EqualFold(embedURL, NotEmbeddable)
	if !embeddable {
		embedURL = ""
	}
	return Media{EmbedURL: embedURL, Platform: strings.TrimSpace(platform), Embeddable: embeddable}
}

// Response is the mapped reply of the Analysis Service.
type Response struct {
	Result Result
	Media  Media
}

type wireStat struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
	Trend string          `json:"trend"`
}

type wireResponse struct {
	EmbedURL     string `json:"embedUrl"`
	Platform     string `json:"platform"`
	AnalysisData *struct {
		Title string     `json:"title"`
		Stats []wireStat `json:"stats"`
	} `json:"analysisData"`
	FullTranscription string                      `json:"fullTranscription"`
	Sentiment         map[string]FeatureSentiment `json:"sentiment"`
}

// DecodeResponse maps an Analysis Service body onto a Response. Missing
// fields become empty values; only malformed JSON is an error.
func DecodeResponse(body []byte) (Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return Response{}, err
	}

	result := Result{
		Stats:             []Stat{},
		FullTranscription: wire.FullTranscription,
		SentimentDetails:  map[string]FeatureSentiment{},
	}
	if wire.AnalysisData != nil {
		result.Title = wire.AnalysisData.Title
		for _, st := range wire.AnalysisData.Stats {
			result.Stats = append(result.Stats, Stat{
				Label: st.Label,
				Value: statValue(st.Value),
				Trend: ParseTrend(st.Trend),
			})
		}
	}
	for feature, detail := range wire.Sentiment {
		if detail.RelevantText == nil {
			detail.RelevantText = []string{}
		}
		result.SentimentDetails[feature] = detail
	}

	return Response{
		Result: result,
		Media:  NewMedia(wire.EmbedURL, wire.Platform),
	}, nil
}

// statValue renders strings unquoted and numbers as their literal text.
func statValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
