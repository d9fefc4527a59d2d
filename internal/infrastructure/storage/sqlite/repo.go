package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// Repo mirrors the audit trail into sqlite so the dashboard can query
// history without scanning the NDJSON file.
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_ms);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`)
	return err
}

func (r *Repo) AppendEvent(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events(kind, ts_ms, payload, created_at) VALUES(?, ?, ?, ?)`,
		ev.Kind, ev.Timestamp.UnixMilli(), string(payload), time.Now().UnixMilli())
	return err
}

func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, ts_ms, payload FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var kind, payload string
		var tsMs int64
		if err := rows.Scan(&kind, &tsMs, &payload); err != nil {
			return nil, err
		}
		ev := model.Event{Kind: kind, Timestamp: time.UnixMilli(tsMs).UTC()}
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			ev.Payload = map[string]any{"raw": payload}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

var _ port.Repository = (*Repo)(nil)
