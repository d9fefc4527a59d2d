package port

import (
	"context"
	"time"

	"caretaker/internal/domain/model"
)

// PositionSnapshot is one broker report of net positions for an account.
type PositionSnapshot struct {
	Account   string                 `json:"account"`
	Positions []model.ActualPosition `json:"positions"`
	Ts        time.Time              `json:"ts"`
}

// PositionFeed streams broker position snapshots into the verifier.
// The caretaker never polls the broker on its own.
type PositionFeed interface {
	Name() string
	Subscribe(ctx context.Context) (<-chan PositionSnapshot, error)
}
