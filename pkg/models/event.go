package models

import (
	"encoding/json"
	"time"
)

// Candidate is the normalized, internal form of a venue/event record
// produced by the ingestion pipeline.
//
// Raw provider records are sanitized into this structure first,
// then the persistence layer upserts from this representation.
type Candidate struct {
	SourceID    string          `json:"source_id"` // "{source}:{external id}", dedup anchor
	Source      string          `json:"source"`    // origin system, e.g. "google_places"
	Title       string          `json:"title"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	VenueName   string          `json:"venue_name,omitempty"`
	City        string          `json:"city"` // canonical city name
	Category    string          `json:"category,omitempty"`
	EventURL    string          `json:"event_url,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Description string          `json:"description,omitempty"`
	Address     string          `json:"address,omitempty"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	RawPayload  json.RawMessage `json:"raw_payload,omitempty"` // verbatim provider record, never sanitized
}

// Event is a stored row. Written only by the ingestion pipeline;
// API consumers read it through the query layer.
type Event struct {
	ID          int64           `json:"id"`
	SourceID    string          `json:"source_id"`
	Source      string          `json:"source"`
	Title       string          `json:"title"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	VenueName   string          `json:"venue_name,omitempty"`
	City        string          `json:"city"`
	Category    string          `json:"category,omitempty"`
	EventURL    string          `json:"event_url,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Description string          `json:"description,omitempty"`
	Address     string          `json:"address,omitempty"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	RawPayload  json.RawMessage `json:"raw_payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Stats summarizes the stored events for the stats endpoint.
type Stats struct {
	Total      int            `json:"total_events"`
	ByCity     map[string]int `json:"by_city"`
	ByCategory map[string]int `json:"by_category"`
	BySource   map[string]int `json:"by_source"`
}
