package port

import "context"

// Alerter delivers a human-readable message to whoever is on call.
// Delivery is fire-and-forget: the caller logs failures locally and
// never lets a broken alert channel mask the underlying discrepancy.
type Alerter interface {
	Name() string
	Send(ctx context.Context, message string) error
}
