// Package places fetches raw venue records from the Google Places API
// (New) searchText endpoint. Records are returned unmodified; all
// sanitation happens downstream in the ingestion pipeline.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/config"
	"eventhub/pkg/models"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1/places:searchText"

	// fields we ask the API to return; anything else is omitted from
	// the response entirely
	fieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.location,places.types,places.websiteUri,places.googleMapsUri," +
		"places.primaryType,places.editorialSummary,places.photos,nextPageToken"
)

// SourceName identifies this provider in source_id keys.
const SourceName = "google_places"

var ErrNoAPIKey = errors.New("places: no API key configured")

type Client struct {
	HTTP       *http.Client
	BaseURL    string
	APIKey     string
	Radius     int // location bias radius in meters
	PageSize   int // results per page, API max is 20
	MaxRetries int
}

func NewClient(apiKey string, radiusMeters int) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Radius:     radiusMeters,
		PageSize:   20,
		MaxRetries: 3,
	}
}

type searchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LanguageCode string        `json:"languageCode"`
	PageSize     int           `json:"pageSize"`
	PageToken    string        `json:"pageToken,omitempty"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center models.LatLng `json:"center"`
	Radius float64       `json:"radius"`
}

type searchResponse struct {
	Places        []models.Place `json:"places"`
	NextPageToken string         `json:"nextPageToken"`
}

// SearchVenues fetches venue records for one city, querying each venue
// type and following pagination tokens until maxResults is reached or
// the provider runs out of pages. Results are deduplicated by place id
// within the fetch.
func (c *Client) SearchVenues(ctx context.Context, city config.City, venueTypes []string, maxResults int) ([]models.PlaceResult, error) {
	if c.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	var bias *locationBias
	if city.Latitude != 0 || city.Longitude != 0 {
		bias = &locationBias{Circle: circle{
			Center: models.LatLng{Latitude: city.Latitude, Longitude: city.Longitude},
			Radius: float64(c.Radius),
		}}
	}

	seen := make(map[string]bool)
	var out []models.PlaceResult

	for _, venueType := range venueTypes {
		if len(out) >= maxResults {
			break
		}

		query := fmt.Sprintf("%s in %s, South Africa", strings.ReplaceAll(venueType, "_", " "), city.Name)
		pageToken := ""

		for len(out) < maxResults {
			resp, err := c.search(ctx, searchRequest{
				TextQuery:    query,
				LanguageCode: "en",
				PageSize:     c.PageSize,
				PageToken:    pageToken,
				LocationBias: bias,
			})
			if err != nil {
				return nil, fmt.Errorf("search %q: %w", query, err)
			}

			fetchedAt := time.Now().UTC()
			for _, p := range resp.Places {
				if p.ID == "" || seen[p.ID] {
					continue
				}
				seen[p.ID] = true
				out = append(out, models.PlaceResult{
					Place:       p,
					SearchQuery: venueType,
					FetchedAt:   fetchedAt,
				})
				if len(out) >= maxResults {
					break
				}
			}

			pageToken = resp.NextPageToken
			if pageToken == "" || len(resp.Places) == 0 {
				break
			}
		}
	}

	return out, nil
}

// search performs one POST with retries: exponential backoff on rate
// limiting and transient network errors, immediate failure on other
// API errors.
func (c *Client) search(ctx context.Context, reqBody searchRequest) (*searchResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, time.Duration(1<<(attempt-1))*time.Second); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.APIKey)
		req.Header.Set("X-Goog-FieldMask", fieldMask)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request: %w", err)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var sr searchResponse
			if err := json.Unmarshal(body, &sr); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			return &sr, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited: status %d", resp.StatusCode)
		default:
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))
		}
	}

	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// PhotoURL builds the media URL for a photo resource name returned by
// the API. The key is required in the URL itself.
func (c *Client) PhotoURL(photoName string) string {
	if photoName == "" {
		return ""
	}
	return fmt.Sprintf("https://places.googleapis.com/v1/%s/media?key=%s&maxWidthPx=800", photoName, c.APIKey)
}
