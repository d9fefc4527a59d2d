package port

import (
	"context"

	"caretaker/internal/domain/model"
)

// Repository is the audit-trail store. Every money-adjacent decision the
// caretaker makes lands here before anything is acknowledged upstream.
type Repository interface {
	// AppendEvent durably records one audit event.
	AppendEvent(ctx context.Context, ev model.Event) error

	// RecentEvents returns up to limit events, newest first. Backends
	// that only serve the write path may return nil.
	RecentEvents(ctx context.Context, limit int) ([]model.Event, error)

	// Connection management
	Close() error
}
