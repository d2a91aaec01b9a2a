package queue

import (
	"encoding/json"
	"time"

	"review-analyzer/internal/pipeline"
)

const (
	EventAnalysisCompleted = "analysis.completed"
	messageVersion         = 1
)

// Message is the payload sent to downstream consumers when an analysis
// completes.
type Message struct {
	Event       string `json:"event"`
	RecordID    string `json:"recordId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	SourceURL   string `json:"sourceUrl"`
	Title       string `json:"title"`
	Platform    string `json:"platform,omitempty"`
	StatCount   int    `json:"statCount"`
	Persist     string `json:"persist"`
	RequestID   string `json:"requestId,omitempty"`
	CompletedAt string `json:"completedAt"`
	Version     int    `json:"version"`
}

// FromCompletion builds the analysis.completed message for c.
func FromCompletion(c pipeline.Completion, requestID string, at time.Time) Message {
	return Message{
		Event:       EventAnalysisCompleted,
		RecordID:    c.RecordID,
		UserID:      c.UserID,
		SourceURL:   c.SourceURL,
		Title:       c.Result.Title,
		Platform:    c.Media.Platform,
		StatCount:   len(c.Result.Stats),
		Persist:     string(c.Persist),
		RequestID:   requestID,
		CompletedAt: at.UTC().Format(time.RFC3339),
		Version:     messageVersion,
	}
}

// Key partitions messages by user so one user's events stay ordered.
func (m Message) Key() string {
	if m.UserID != "" {
		return m.UserID
	}
	return m.SourceURL
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
