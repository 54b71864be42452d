// Package ingest runs the fetch -> sanitize -> upsert batch that keeps
// the events table in sync with the external places provider. Runs are
// idempotent: re-ingesting the same records updates rows in place.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/config"
	"eventhub/internal/sanitize"
	"eventhub/pkg/models"
)

// Source fetches raw venue records for one city.
type Source interface {
	SearchVenues(ctx context.Context, city config.City, venueTypes []string, maxResults int) ([]models.PlaceResult, error)
	PhotoURL(photoName string) string
}

// Store is the pipeline's write surface plus the read needed for
// dry-run accounting.
type Store interface {
	Upsert(ctx context.Context, c models.Candidate) (*models.Event, bool, error)
	GetBySourceID(ctx context.Context, sourceID string) (*models.Event, error)
}

type Options struct {
	City       string // one target city; empty means all configured
	MaxResults int    // per-city ceiling; <= 0 uses the configured default
	DryRun     bool   // compute the summary without writing
	Verbose    bool
}

type AreaResult struct {
	City    string `json:"city"`
	Fetched int    `json:"fetched"`
	Err     string `json:"error,omitempty"`
}

type Summary struct {
	RunID      string       `json:"run_id"`
	DryRun     bool         `json:"dry_run"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Skipped    int          `json:"skipped"`
	Errors     int          `json:"errors"` // failed area fetches
	Total      int          `json:"total"`  // created + updated + skipped
	Areas      []AreaResult `json:"areas"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

type Pipeline struct {
	Source Source
	Store  Store
	Cfg    *config.Config
	Cities *sanitize.CityNormalizer
}

func New(cfg *config.Config, src Source, store Store) *Pipeline {
	aliases := make([]sanitize.Alias, 0, len(cfg.CityAliases))
	for _, a := range cfg.CityAliases {
		aliases = append(aliases, sanitize.Alias{Raw: a.Alias, Canonical: a.City})
	}
	return &Pipeline{
		Source: src,
		Store:  store,
		Cfg:    cfg,
		Cities: sanitize.NewCityNormalizer(aliases),
	}
}

// Run executes one ingestion pass. Per-area fetch failures and
// malformed records are absorbed into the summary; only configuration
// errors, total provider failure and storage invariant violations
// return an error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		StartedAt: time.Now().UTC(),
	}

	// plan
	targets := p.Cfg.Cities
	if opts.City != "" {
		city, ok := p.Cfg.City(p.Cities.Normalize(opts.City))
		if !ok {
			return nil, fmt.Errorf("unknown city %q", opts.City)
		}
		targets = []config.City{city}
	}
	if len(targets) == 0 {
		return nil, errors.New("no target cities configured")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = p.Cfg.Places.MaxResults
	}

	// fetch: concurrent per area into area-local buffers, merged below
	type areaFetch struct {
		city    config.City
		results []models.PlaceResult
		err     error
	}
	fetches := make([]areaFetch, len(targets))

	var wg sync.WaitGroup
	for i, city := range targets {
		wg.Add(1)
		go func(i int, city config.City) {
			defer wg.Done()
			results, err := p.Source.SearchVenues(ctx, city, p.Cfg.Places.VenueTypes, maxResults)
			fetches[i] = areaFetch{city: city, results: results, err: err}
		}(i, city)
	}
	wg.Wait()

	var raw []models.PlaceResult
	var firstErr error
	for _, f := range fetches {
		area := AreaResult{City: f.city.Name, Fetched: len(f.results)}
		if f.err != nil {
			area.Err = f.err.Error()
			summary.Errors++
			if firstErr == nil {
				firstErr = f.err
			}
			log.Printf("[ingest] area %s fetch failed: %v", f.city.Name, f.err)
		} else {
			log.Printf("[ingest] area %s: fetched %d records", f.city.Name, len(f.results))
			raw = append(raw, f.results...)
		}
		summary.Areas = append(summary.Areas, area)
	}
	if summary.Errors == len(targets) {
		return nil, fmt.Errorf("all %d area fetches failed: %w", len(targets), firstErr)
	}

	// sanitize + upsert
	seen := make(map[string]bool, len(raw))
	for _, pr := range raw {
		candidate, ok := p.buildCandidate(pr)
		if !ok {
			summary.Skipped++
			continue
		}
		if opts.Verbose {
			log.Printf("[ingest] processing %s (%s)", candidate.Title, candidate.City)
		}

		if opts.DryRun {
			if seen[candidate.SourceID] {
				summary.Updated++
				continue
			}
			seen[candidate.SourceID] = true
			existing, err := p.Store.GetBySourceID(ctx, candidate.SourceID)
			if err != nil {
				return nil, fmt.Errorf("lookup %s: %w", candidate.SourceID, err)
			}
			if existing == nil {
				summary.Created++
			} else {
				summary.Updated++
			}
			continue
		}

		// an upsert error here means the insert-or-update invariant
		// itself broke; that is a defect, not a data problem
		_, created, err := p.Store.Upsert(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", candidate.SourceID, err)
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	summary.Total = summary.Created + summary.Updated + summary.Skipped
	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}
