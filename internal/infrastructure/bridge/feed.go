package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// frame is what the broker bridge pushes on every snapshot.
type frame struct {
	Account   string                 `json:"account"`
	Positions []model.ActualPosition `json:"positions"`
}

// Feed is a websocket client for the broker bridge. The bridge pushes
// position snapshots on its own cadence; the feed reconnects with
// exponential backoff and never polls.
type Feed struct {
	url     string
	account string // default account when frames omit one
}

func NewFeed(wsURL, account string) *Feed {
	return &Feed{url: wsURL, account: account}
}

func (f *Feed) Name() string { return "bridge" }

func (f *Feed) Subscribe(ctx context.Context) (<-chan port.PositionSnapshot, error) {
	out := make(chan port.PositionSnapshot, 16)
	go func() {
		defer close(out)
		f.run(ctx, out)
	}()
	return out, nil
}

func (f *Feed) run(ctx context.Context, out chan<- port.PositionSnapshot) {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := f.connect(ctx, out)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("url", f.url).Msg("bridge disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (f *Feed) connect(ctx context.Context, out chan<- port.PositionSnapshot) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Str("url", f.url).Msg("bridge connected")

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			f.handle(data, out)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

func (f *Feed) handle(data []byte, out chan<- port.PositionSnapshot) {
	var fr frame
	if err := json.Unmarshal(data, &fr); err != nil {
		log.Debug().Err(err).Msg("bridge frame not parseable, skipping")
		return
	}
	account := fr.Account
	if account == "" {
		account = f.account
	}
	out <- port.PositionSnapshot{
		Account:   account,
		Positions: fr.Positions,
		Ts:        time.Now(),
	}
}

var _ port.PositionFeed = (*Feed)(nil)
