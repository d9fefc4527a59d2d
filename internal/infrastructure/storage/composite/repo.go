package composite

import (
	"context"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// Repo fans writes out to every configured backend. Appends go to all of
// them; the first backend that can serve a read answers it.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) AppendEvent(ctx context.Context, ev model.Event) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.AppendEvent(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	var firstErr error
	for _, repo := range r.repos {
		events, err := repo.RecentEvents(ctx, limit)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(events) > 0 {
			return events, nil
		}
	}
	return nil, firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)
