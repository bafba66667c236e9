// Package model defines the core feed entities.
package model

import "time"

// Message is one normalized feed event.
type Message struct {
	ID               int64     `json:"id,omitempty"`
	Message          string    `json:"message"`
	Author           string    `json:"author"`
	Timestamp        string    `json:"timestamp"`
	Category         string    `json:"category"`
	Sentiment        float64   `json:"sentiment"`
	KeywordMentioned string    `json:"keyword_mentioned,omitempty"`
	MessageLength    int       `json:"message_length"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// DefaultCategory is used when an incoming record carries no category.
const DefaultCategory = "other"

// CategoryStats is the derived per-category aggregate row. It is fully
// recomputed from the master table on every insert for its category.
type CategoryStats struct {
	Category     string    `json:"category"`
	MessageCount int       `json:"message_count"`
	AvgSentiment float64   `json:"avg_sentiment"`
	LastUpdated  time.Time `json:"last_updated"`
}

// CategorySummary is one row of the analytics summary.
type CategorySummary struct {
	Category        string  `json:"category"`
	MessageCount    int     `json:"message_count"`
	AvgSentiment    float64 `json:"avg_sentiment"`
	UniqueAuthors   int     `json:"unique_authors"`
	LatestTimestamp string  `json:"latest_timestamp"`
}
