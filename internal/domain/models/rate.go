package models

import (
	"strings"
	"time"
)

// ContentKind is the declared shape of a feed body.
type ContentKind string

const (
	ContentKindText    ContentKind = "text"
	ContentKindJSON    ContentKind = "json"
	ContentKindUnknown ContentKind = ""
)

// ContentKindOf classifies a Content-Type header value.
func ContentKindOf(contentType string) ContentKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text"):
		return ContentKindText
	case strings.Contains(ct, "json"):
		return ContentKindJSON
	default:
		return ContentKindUnknown
	}
}

// FeedResponse is the raw result of one fetch against a rate source.
type FeedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Kind reports the content kind declared by the response.
func (r *FeedResponse) Kind() ContentKind {
	return ContentKindOf(r.ContentType)
}

// RateView exposes the current rate state to API consumers.
type RateView struct {
	BaseRate      float64 `json:"base_rate"`
	Purity        float64 `json:"purity"`
	EffectiveRate float64 `json:"effective_rate"`
	SecondaryRate float64 `json:"secondary_rate,omitempty"`
}

// RateSnapshot is the persisted last-good base rate.
type RateSnapshot struct {
	ID        string    `bson:"_id" json:"id"`
	BaseRate  float64   `bson:"base_rate" json:"base_rate"`
	Source    string    `bson:"source" json:"source"`
	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}
