package caretaker

import (
	"time"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
	"caretaker/internal/domain/service"
)

type Repository = port.Repository

// Deps wires the caretaker to its collaborators. Feeds are optional;
// position snapshots can also be pushed in over HTTP.
type Deps struct {
	Repo    port.Repository
	Sink    port.OrderSink
	Alerter port.Alerter
	Session *service.SessionClock
	Feeds   []port.PositionFeed

	GracePeriod   time.Duration // default 30s
	MaxRetries    int           // default 3
	CheckInterval time.Duration // default 60s

	Now func() time.Time // injectable clock for tests
}

// Stats counts real events, each exactly once.
type Stats struct {
	OrdersMonitored  int       `json:"orders_monitored"`
	RetriesAttempted int       `json:"retries_attempted"`
	AlertsSent       int       `json:"alerts_sent"`
	LastCheck        time.Time `json:"last_check"`
}

// Status is the operator-facing summary served by the HTTP layer.
type Status struct {
	SessionActive     bool                     `json:"session_active"`
	ExpectedPositions []model.ExpectedPosition `json:"expected_positions"`
	PendingOrders     int                      `json:"pending_orders"`
	Stats             Stats                    `json:"stats"`
}

// EODReport is the outcome of an end-of-day flatten check.
type EODReport struct {
	Flat          bool                   `json:"flat"`
	OpenPositions []model.ActualPosition `json:"open_positions,omitempty"`
}
