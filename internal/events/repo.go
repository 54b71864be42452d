package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eventhub/pkg/models"
)

// Repo owns all reads and writes of the events table. Writes happen
// only through Upsert, which the ingestion pipeline calls; the API
// layer is read-only.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type ListQuery struct {
	City        string // case-insensitive exact
	Category    string
	Source      string
	Q           string // keyword search in title/venue/description/address
	StartAfter  *time.Time
	StartBefore *time.Time
	Limit       int
	Offset      int
}

// Upsert inserts the candidate or, when a row with the same source_id
// exists, overwrites its mutable fields in place. The conflict clause
// makes the operation atomic with respect to concurrent writers.
// Returns the stored row and whether it was newly created.
func (r *Repo) Upsert(ctx context.Context, c models.Candidate) (*models.Event, bool, error) {
	now := time.Now().UTC()
	raw := c.RawPayload
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO events (
			source_id, source, title, start_date, venue_name, city, category,
			event_url, image_url, description, address, latitude, longitude,
			raw_payload, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
		  source = excluded.source,
		  title = excluded.title,
		  start_date = excluded.start_date,
		  venue_name = excluded.venue_name,
		  city = excluded.city,
		  category = excluded.category,
		  event_url = excluded.event_url,
		  image_url = excluded.image_url,
		  description = excluded.description,
		  address = excluded.address,
		  latitude = excluded.latitude,
		  longitude = excluded.longitude,
		  raw_payload = excluded.raw_payload,
		  updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`,
		c.SourceID, c.Source, c.Title, nullTime(c.StartDate), c.VenueName, c.City,
		c.Category, c.EventURL, c.ImageURL, c.Description, c.Address,
		c.Latitude, c.Longitude, string(raw), now, now,
	)

	var (
		id                   int64
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
		return nil, false, fmt.Errorf("upsert %s: %w", c.SourceID, err)
	}

	// a fresh insert gets created_at == updated_at from the same
	// bind parameter; an update keeps the original created_at
	created := createdAt.Equal(updatedAt)

	return &models.Event{
		ID:          id,
		SourceID:    c.SourceID,
		Source:      c.Source,
		Title:       c.Title,
		StartDate:   c.StartDate,
		VenueName:   c.VenueName,
		City:        c.City,
		Category:    c.Category,
		EventURL:    c.EventURL,
		ImageURL:    c.ImageURL,
		Description: c.Description,
		Address:     c.Address,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		RawPayload:  raw,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, created, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *Repo) GetBySourceID(ctx context.Context, sourceID string) (*models.Event, error) {
	return r.getOne(ctx, "source_id = ?", sourceID)
}

func (r *Repo) getOne(ctx context.Context, where string, arg any) (*models.Event, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, source_id, source, title, start_date, venue_name, city, category,
		       event_url, image_url, description, address, latitude, longitude,
		       created_at, updated_at, raw_payload
		FROM events
		WHERE `+where, arg)

	e, err := scanEvent(row.Scan, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Event, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Event, 0, q.Limit)
	for rows.Next() {
		e, err := scanEvent(rows.Scan, false)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or the SELECT list. Ordering is
// fixed so pagination is deterministic across pages: newest start date
// first, nulls last, creation order breaking ties.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `
		SELECT id, source_id, source, title, start_date, venue_name, city, category,
		       event_url, image_url, description, address, latitude, longitude,
		       created_at, updated_at
		FROM events
	`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM events`
	}

	var where []string
	var args []any

	if s := strings.TrimSpace(q.City); s != "" {
		where = append(where, "LOWER(city) = ?")
		args = append(args, strings.ToLower(s))
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(s))
	}
	if s := strings.TrimSpace(q.Source); s != "" {
		where = append(where, "LOWER(source) = ?")
		args = append(args, strings.ToLower(s))
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(venue_name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?)")
		kw := "%" + strings.ToLower(s) + "%"
		args = append(args, kw, kw, kw, kw)
	}
	if q.StartAfter != nil {
		where = append(where, "start_date >= ?")
		args = append(args, q.StartAfter.UTC())
	}
	if q.StartBefore != nil {
		where = append(where, "start_date <= ?")
		args = append(args, q.StartBefore.UTC())
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY start_date IS NULL, start_date DESC, created_at DESC, id ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		q.ClampPage()
		args = append(args, q.Limit, q.Offset)
	}

	return sqlStr, args
}

// ClampPage forces Limit and Offset into the ranges every query runs
// with, so callers reporting the page size reflect the real one.
func (q *ListQuery) ClampPage() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Stats aggregates the stored events: total plus counts grouped by
// city, category and source.
func (r *Repo) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		ByCity:     map[string]int{},
		ByCategory: map[string]int{},
		BySource:   map[string]int{},
	}

	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("stats total: %w", err)
	}

	for _, g := range []struct {
		column string
		into   map[string]int
	}{
		{"city", stats.ByCity},
		{"category", stats.ByCategory},
		{"source", stats.BySource},
	} {
		rows, err := r.DB.QueryContext(ctx, `SELECT `+g.column+`, COUNT(*) FROM events GROUP BY `+g.column)
		if err != nil {
			return nil, fmt.Errorf("stats by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("stats by %s scan: %w", g.column, err)
			}
			g.into[key] = n
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("stats by %s rows: %w", g.column, err)
		}
		rows.Close()
	}

	return stats, nil
}

// scanEvent maps one row into an Event. withRaw matches the column
// lists above: detail queries append raw_payload, list queries leave
// the payload out.
func scanEvent(scan func(...any) error, withRaw bool) (*models.Event, error) {
	var (
		e         models.Event
		startDate sql.NullTime
		lat, lng  sql.NullFloat64
		raw       string
	)

	dest := []any{
		&e.ID, &e.SourceID, &e.Source, &e.Title, &startDate, &e.VenueName,
		&e.City, &e.Category, &e.EventURL, &e.ImageURL, &e.Description,
		&e.Address, &lat, &lng, &e.CreatedAt, &e.UpdatedAt,
	}
	if withRaw {
		dest = append(dest, &raw)
	}

	if err := scan(dest...); err != nil {
		return nil, err
	}

	if startDate.Valid {
		t := startDate.Time.UTC()
		e.StartDate = &t
	}
	if lat.Valid {
		e.Latitude = &lat.Float64
	}
	if lng.Valid {
		e.Longitude = &lng.Float64
	}
	if withRaw && raw != "" {
		e.RawPayload = json.RawMessage(raw)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
