package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// Repo mirrors the audit trail into postgres for deployments that keep
// long-horizon history outside the box running the caretaker.
type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  id BIGSERIAL PRIMARY KEY,
  kind TEXT NOT NULL,
  ts_ms BIGINT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_ms);
`)
	return err
}

func (r *Repo) AppendEvent(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events(kind, ts_ms, payload) VALUES($1, $2, $3)`,
		ev.Kind, ev.Timestamp.UnixMilli(), string(payload))
	return err
}

func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, ts_ms, payload FROM events ORDER BY id DESC LIMIT $1`, limit)
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
