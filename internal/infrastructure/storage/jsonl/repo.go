package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// Repo is the primary audit log: newline-delimited JSON, one event per
// line, fsynced on every append. This file is the only durable record of
// signals that drive money-moving actions, so the append must land on
// disk before the webhook request is acknowledged.
type Repo struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func New(path string) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Repo{path: path, f: f}, nil
}

func (r *Repo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}

func (r *Repo) AppendEvent(ctx context.Context, ev model.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	b = append(b, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.f.Write(b); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return r.f.Sync()
}

// RecentEvents reads the log backward, newest first. A corrupt or
// partial last line is skipped without breaking earlier lines.
func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	lines := bytes.Split(data, []byte{'\n'})
	out := make([]model.Event, 0, limit)
	for i := len(lines) - 1; i >= 0 && len(out) < limit; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

var _ port.Repository = (*Repo)(nil)
