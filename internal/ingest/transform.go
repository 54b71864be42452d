package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"eventhub/internal/places"
	"eventhub/internal/sanitize"
	"eventhub/pkg/models"
)

// categoryByType maps Google place types onto the event taxonomy.
var categoryByType = map[string]string{
	"night_club":               "Nightlife",
	"bar":                      "Nightlife",
	"restaurant":               "Food & Dining",
	"museum":                   "Arts & Culture",
	"art_gallery":              "Arts & Culture",
	"movie_theater":            "Entertainment",
	"performing_arts_theater":  "Performing Arts",
	"stadium":                  "Sports",
	"tourist_attraction":       "Attractions",
	"amusement_park":           "Entertainment",
	"bowling_alley":            "Entertainment",
	"casino":                   "Entertainment",
	"convention_center":        "Business & Conferences",
	"cultural_center":          "Arts & Culture",
	"event_venue":              "Events",
	"live_music_venue":         "Music",
	"concert_hall":             "Music",
}

const defaultCategory = "General"

func categoryFor(primaryType, venueType string) string {
	if c, ok := categoryByType[primaryType]; ok {
		return c
	}
	if c, ok := categoryByType[venueType]; ok {
		return c
	}
	return defaultCategory
}

// buildCandidate sanitizes one raw place record into an upsert
// candidate. ok is false when an identity field (place id, title)
// cannot be derived; such records are skipped, never fatal.
func (p *Pipeline) buildCandidate(pr models.PlaceResult) (models.Candidate, bool) {
	place := pr.Place
	if place.ID == "" {
		return models.Candidate{}, false
	}

	title := sanitize.CleanTitle(place.DisplayName.Text)
	if title == "" {
		return models.Candidate{}, false
	}

	city := p.Cities.FromAddress(place.FormattedAddress)
	if city == "" {
		city = p.Cfg.DefaultCity
	}

	description := ""
	if place.EditorialSummary != nil {
		description = sanitize.CleanDescription(place.EditorialSummary.Text)
	}

	// prefer the venue's own site over the provider's maps page
	eventURL := sanitize.ValidateAndCleanURL(place.WebsiteURI)
	if eventURL == "" {
		eventURL = sanitize.ValidateAndCleanURL(place.GoogleMapsURI)
	}

	imageURL := ""
	if len(place.Photos) > 0 && place.Photos[0].Name != "" {
		imageURL = p.Source.PhotoURL(place.Photos[0].Name)
	}
	if imageURL == "" {
		slug := strings.ReplaceAll(pr.SearchQuery, "_", "-")
		if place.PrimaryType != "" {
			slug = strings.ReplaceAll(place.PrimaryType, "_", "-")
		}
		imageURL = fmt.Sprintf("https://source.unsplash.com/800x600/?%s,venue,%s", slug, strings.ToLower(city))
	}

	var lat, lng *float64
	if place.Location != nil {
		la, lo := place.Location.Latitude, place.Location.Longitude
		lat, lng = &la, &lo
	}

	// the raw record is preserved verbatim, independent of the
	// sanitized fields above
	raw, err := json.Marshal(pr)
	if err != nil {
		raw = []byte("{}")
	}

	return models.Candidate{
		SourceID:    fmt.Sprintf("%s:%s", places.SourceName, place.ID),
		Source:      places.SourceName,
		Title:       title,
		StartDate:   sanitize.ParseDate(nil), // venue records carry no event date
		VenueName:   title,
		City:        city,
		Category:    sanitize.CleanText(categoryFor(place.PrimaryType, pr.SearchQuery)),
		EventURL:    eventURL,
		ImageURL:    imageURL,
		Description: description,
		Address:     sanitize.Truncate(sanitize.CleanText(place.FormattedAddress), 500),
		Latitude:    lat,
		Longitude:   lng,
		RawPayload:  raw,
	}, true
}
