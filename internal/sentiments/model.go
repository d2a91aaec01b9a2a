package sentiments

import (
	"time"

	"review-analyzer/internal/analysis"
)

// Record is one persisted analysis row in the sentiments table.
type Record struct {
	ID                string                               `json:"id"`
	UserID            string                               `json:"userId"`
	SourceURL         string                               `json:"sourceUrl"`
	AnalysisTitle     string                               `json:"analysisTitle"`
	AnalysisStats     []analysis.Stat                      `json:"analysisStats"`
	FullTranscription string                               `json:"fullTranscription"`
	SentimentDetails  map[string]analysis.FeatureSentiment `json:"sentimentDetails"`
	CreatedAt         time.Time                            `json:"createdAt"`
}

// FromResult builds an unsaved record for userID from a finished result.
func FromResult(userID, sourceURL string, result analysis.Result) Record {
	n := result.Normalized()
	return Record{
		UserID:            userID,
		SourceURL:         sourceURL,
		AnalysisTitle:     n.Title,
		AnalysisStats:     n.Stats,
		FullTranscription: n.FullTranscription,
		SentimentDetails:  n.SentimentDetails,
	}
}

// Result converts the record back into a display result.
func (r Record) Result() analysis.Result {
	return analysis.Result{
		Title:             r.AnalysisTitle,
		Stats:             r.AnalysisStats,
		FullTranscription: r.FullTranscription,
		SentimentDetails:  r.SentimentDetails,
	}.Normalized()
}

func (r Record) normalized() Record {
	res := r.Result()
	r.AnalysisStats = res.Stats
	r.SentimentDetails = res.SentimentDetails
	return r
}
