package models

import "time"

// Place mirrors the fields we request from the Google Places (New)
// searchText endpoint via the field mask. Values are raw; sanitation
// happens downstream in the ingestion pipeline.
type Place struct {
	ID               string         `json:"id"`
	DisplayName      LocalizedText  `json:"displayName"`
	FormattedAddress string         `json:"formattedAddress"`
	Location         *LatLng        `json:"location,omitempty"`
	Types            []string       `json:"types,omitempty"`
	PrimaryType      string         `json:"primaryType,omitempty"`
	WebsiteURI       string         `json:"websiteUri,omitempty"`
	GoogleMapsURI    string         `json:"googleMapsUri,omitempty"`
	EditorialSummary *LocalizedText `json:"editorialSummary,omitempty"`
	Photos           []Photo        `json:"photos,omitempty"`
}

type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Photo struct {
	Name string `json:"name"`
}

// PlaceResult is one raw record handed from the source client to the
// pipeline: the place plus fetch provenance kept for the raw payload.
type PlaceResult struct {
	Place       Place     `json:"place"`
	SearchQuery string    `json:"search_query"`
	FetchedAt   time.Time `json:"fetched_at"`
}
