package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/pkg/database"
	"eventhub/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func candidate(n int, city, category string) models.Candidate {
	return models.Candidate{
		SourceID:   fmt.Sprintf("google_places:place-%d", n),
		Source:     "google_places",
		Title:      fmt.Sprintf("Venue %d", n),
		VenueName:  fmt.Sprintf("Venue %d", n),
		City:       city,
		Category:   category,
		EventURL:   "https://example.com/venue",
		Address:    fmt.Sprintf("%d Main Rd, %s", n, city),
		RawPayload: json.RawMessage(`{"id":"x"}`),
	}
}

func TestRepo_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := candidate(1, "Johannesburg", "Music")

	first, created, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))

	// same source_id again: row updated in place, never duplicated
	c.Title = "Renamed Venue"
	second, created, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Renamed Venue", second.Title)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	total, err := repo.Count(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	stored, err := repo.GetBySourceID(ctx, c.SourceID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Renamed Venue", stored.Title)
	assert.JSONEq(t, `{"id":"x"}`, string(stored.RawPayload))
}

func TestRepo_UpsertReplacesRawPayload(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := candidate(1, "Johannesburg", "Music")
	_, _, err := repo.Upsert(ctx, c)
	require.NoError(t, err)

	c.RawPayload = json.RawMessage(`{"id":"y","extra":true}`)
	_, _, err = repo.Upsert(ctx, c)
	require.NoError(t, err)

	stored, err := repo.GetBySourceID(ctx, c.SourceID)
	require.NoError(t, err)
	// latest raw payload wins wholesale, no partial merge
	assert.JSONEq(t, `{"id":"y","extra":true}`, string(stored.RawPayload))
}

func TestRepo_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, _, err := repo.Upsert(ctx, candidate(1, "Pretoria", "Sports"))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.SourceID, got.SourceID)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepo_ListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []models.Candidate{
		candidate(1, "Johannesburg", "Music"),
		candidate(2, "Johannesburg", "Nightlife"),
		candidate(3, "Pretoria", "Music"),
	}
	seed[0].Description = "Live jazz every Friday"
	for _, c := range seed {
		_, _, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
	}

	t.Run("by city case-insensitive", func(t *testing.T) {
		items, err := repo.List(ctx, ListQuery{City: "johannesburg"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("by category", func(t *testing.T) {
		items, err := repo.List(ctx, ListQuery{Category: "music"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("city and category combined", func(t *testing.T) {
		items, err := repo.List(ctx, ListQuery{City: "Pretoria", Category: "Music"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "google_places:place-3", items[0].SourceID)
	})

	t.Run("keyword search hits description", func(t *testing.T) {
		items, err := repo.List(ctx, ListQuery{Q: "jazz"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "google_places:place-1", items[0].SourceID)
	})

	t.Run("no match", func(t *testing.T) {
		items, err := repo.List(ctx, ListQuery{City: "Cape Town"})
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRepo_ListStartDateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 15, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		c := candidate(i, "Johannesburg", "Music")
		dd := d
		c.StartDate = &dd
		_, _, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
	}
	// one undated row should never match a date filter
	_, _, err := repo.Upsert(ctx, candidate(99, "Johannesburg", "Music"))
	require.NoError(t, err)

	after := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	items, err := repo.List(ctx, ListQuery{StartAfter: &after})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.List(ctx, ListQuery{StartAfter: &after, StartBefore: &before})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "google_places:place-1", items[0].SourceID)
}

func TestRepo_ListPaginationDeterministic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, _, err := repo.Upsert(ctx, candidate(i, "Johannesburg", "Music"))
		require.NoError(t, err)
	}

	var all []string
	for offset := 0; offset < 25; offset += 10 {
		items, err := repo.List(ctx, ListQuery{Limit: 10, Offset: offset})
		require.NoError(t, err)
		for _, e := range items {
			all = append(all, e.SourceID)
		}
	}

	require.Len(t, all, 25)
	seen := map[string]bool{}
	for _, id := range all {
		assert.False(t, seen[id], "duplicate %s across pages", id)
		seen[id] = true
	}
}

func TestRepo_Stats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []models.Candidate{
		candidate(1, "Johannesburg", "Music"),
		candidate(2, "Johannesburg", "Nightlife"),
		candidate(3, "Pretoria", "Music"),
	} {
		_, _, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByCity["Johannesburg"])
	assert.Equal(t, 1, stats.ByCity["Pretoria"])
	assert.Equal(t, 2, stats.ByCategory["Music"])
	assert.Equal(t, 1, stats.ByCategory["Nightlife"])
	assert.Equal(t, 3, stats.BySource["google_places"])
}
