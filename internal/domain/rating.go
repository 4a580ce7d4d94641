package domain

import (
	"fmt"
	"time"
)

// Rating value bounds.
const (
	MinRatingValue   = 0
	MaxRatingValue   = 5
	MaxCommentLength = 500
	MaxPhotos        = 10
)

// Sentiment is the tone label attached to a rating's comment.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment converts s to a Sentiment.
func ParseSentiment(s string) (Sentiment, error) {
	switch v := Sentiment(s); v {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return v, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}

// Rating is one user's score for one store. At most one exists per
// (StoreID, UserID).
type Rating struct {
	ID           string     `json:"id"`
	StoreID      string     `json:"store_id"`
	UserID       string     `json:"user_id"`
	Value        int        `json:"rating"`
	Comment      string     `json:"comment"`
	Sentiment    Sentiment  `json:"sentiment"`
	HelpfulCount int        `json:"helpful_count"`
	Verified     bool       `json:"verified"`
	Photos       []PhotoRef `json:"photos"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	UserName     string     `json:"user_name,omitempty"`
	StoreName    string     `json:"store_name,omitempty"`
}

// PhotoRef is a photo attached to a rating.
type PhotoRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RatingWrite carries the mutable fields of a submit or upsert.
type RatingWrite struct {
	StoreID   string
	UserID    string
	Value     int
	Comment   string
	Sentiment Sentiment
	// Photos replaces the rating's photo set when non-nil.
	Photos []string
}

// RatingPatch is a partial update. Nil fields are left unchanged.
type RatingPatch struct {
	Value     *int
	Comment   *string
	Sentiment *Sentiment
	Photos    []string
}

// UpsertResult reports whether an upsert created a new rating.
type UpsertResult struct {
	Rating       *Rating        `json:"rating"`
	Created      bool           `json:"created"`
	Aggregate    StoreAggregate `json:"store_aggregate"`
	StoreOwnerID string         `json:"-"`
}

// WriteResult is returned by every rating mutation together with the
// store aggregate recomputed in the same transaction.
type WriteResult struct {
	Rating       *Rating        `json:"rating"`
	Aggregate    StoreAggregate `json:"store_aggregate"`
	StoreOwnerID string         `json:"-"`
}

// RatingStats summarises one store's ratings.
type RatingStats struct {
	StoreID       string         `json:"store_id"`
	AverageRating float64        `json:"average_rating"`
	TotalRatings  int            `json:"total_ratings"`
	Distribution  map[int]int    `json:"distribution"`
	Sentiment     SentimentSplit `json:"sentiment"`
}

// SentimentSplit counts ratings per sentiment.
type SentimentSplit struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// HelpfulResult is the rating's helpful count after a mark or unmark.
type HelpfulResult struct {
	RatingID     string `json:"rating_id"`
	HelpfulCount int    `json:"helpful_count"`
	Marked       bool   `json:"marked"`
	AuthorID     string `json:"-"`
}
