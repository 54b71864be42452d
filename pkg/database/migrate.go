package database

import (
	"database/sql"
	"fmt"
)

// schema is applied on every start; all statements are idempotent.
//
// events.source_id carries the dedup invariant: one row per source record,
// enforced by the unique index and the ON CONFLICT upsert in the events repo.
// The secondary indexes back the query layer's filter patterns.
const schema = `
CREATE TABLE IF NOT EXISTS events (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  source_id   TEXT NOT NULL,
  source      TEXT NOT NULL DEFAULT 'google_places',
  title       TEXT NOT NULL,
  start_date  TIMESTAMP,
  venue_name  TEXT NOT NULL DEFAULT '',
  city        TEXT NOT NULL DEFAULT '',
  category    TEXT NOT NULL DEFAULT '',
  event_url   TEXT NOT NULL DEFAULT '',
  image_url   TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  address     TEXT NOT NULL DEFAULT '',
  latitude    REAL,
  longitude   REAL,
  raw_payload TEXT NOT NULL DEFAULT '{}',
  created_at  TIMESTAMP NOT NULL,
  updated_at  TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_events_source_id ON events (source_id);
CREATE INDEX IF NOT EXISTS idx_events_city_start ON events (city, start_date);
CREATE INDEX IF NOT EXISTS idx_events_category ON events (category);
CREATE INDEX IF NOT EXISTS idx_events_source ON events (source);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);

CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  token_version INTEGER NOT NULL DEFAULT 0,
  created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
