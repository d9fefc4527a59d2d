package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// Repo fans audit events out to redis for live consumers: a capped
// stream for catch-up reads and a pub/sub channel for push delivery.
// The read path is served by the file log, not redis.
type Repo struct {
	rdb         *redis.Client
	eventStream string
	eventChan   string
}

func New(rdb *redis.Client, prefix, eventStream, eventChan string) *Repo {
	if strings.TrimSpace(eventStream) == "" {
		eventStream = prefix + ":events"
	}
	if strings.TrimSpace(eventChan) == "" {
		eventChan = prefix + ":events:pub"
	}
	return &Repo{
		rdb:         rdb,
		eventStream: eventStream,
		eventChan:   eventChan,
	}
}

func (r *Repo) Close() error { return r.rdb.Close() }

func (r *Repo) AppendEvent(ctx context.Context, ev model.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> * kind ts_ms payload
	_, err = r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.eventStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"kind":    ev.Kind,
			"ts_ms":   ev.Timestamp.UnixMilli(),
			"payload": string(b),
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	return r.rdb.Publish(ctx, r.eventChan, string(b)).Err()
}

func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return nil, nil
}

var _ port.Repository = (*Repo)(nil)
