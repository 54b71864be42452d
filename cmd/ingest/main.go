// The ingest command runs one batch of the fetch -> sanitize -> upsert
// pipeline against the configured places provider. Safe to re-run:
// existing rows are updated in place, never duplicated.
//
// Usage:
//
//	ingest                       # all configured cities
//	ingest -city Johannesburg    # one city
//	ingest -max-results 100      # per-city ceiling
//	ingest -dry-run              # preview, no writes
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/events"
	"eventhub/internal/ingest"
	"eventhub/internal/places"
	"eventhub/pkg/database"
)

func main() {
	var (
		city       = flag.String("city", "", "single city to fetch (default: all configured)")
		maxResults = flag.Int("max-results", 0, "maximum results per city (default: configured value)")
		dryRun     = flag.Bool("dry-run", false, "preview without writing to the database")
		verbose    = flag.Bool("verbose", false, "log each processed record")
		configPath = flag.String("config", os.Getenv("EVENTHUB_CONFIG"), "path to config file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if cfg.Places.APIKey == "" {
		log.Fatal("no places API key configured; set EVENTHUB_PLACES_APIKEY")
	}

	dbCfg := database.DefaultConfig()
	if cfg.DBPath != "" {
		dbCfg.Path = cfg.DBPath
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if *dryRun {
		log.Println("[ingest] dry-run mode: no data will be saved")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := places.NewClient(cfg.Places.APIKey, cfg.Places.RadiusMeters)
	pipeline := ingest.New(cfg, client, events.NewRepo(db))

	summary, err := pipeline.Run(ctx, ingest.Options{
		City:       *city,
		MaxResults: *maxResults,
		DryRun:     *dryRun,
		Verbose:    *verbose,
	})
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	fmt.Println("ingestion complete")
	fmt.Printf("  run:     %s\n", summary.RunID)
	for _, area := range summary.Areas {
		if area.Err != "" {
			fmt.Printf("  %s: fetch failed: %s\n", area.City, area.Err)
			continue
		}
		fmt.Printf("  %s: fetched %d\n", area.City, area.Fetched)
	}
	fmt.Printf("  created: %d\n", summary.Created)
	fmt.Printf("  updated: %d\n", summary.Updated)
	fmt.Printf("  skipped: %d\n", summary.Skipped)
	if summary.Errors > 0 {
		fmt.Printf("  errors:  %d\n", summary.Errors)
	}
	fmt.Printf("  total:   %d\n", summary.Total)

	if *dryRun {
		fmt.Println("dry-run: no data was saved")
	}
}
