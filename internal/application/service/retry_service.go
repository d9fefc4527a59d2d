package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"caretaker/internal/application/port"
	"caretaker/internal/domain/model"
)

// ErrRetryExhausted means the order already spent its retry budget. The
// orchestrator refuses before any network call is made.
var ErrRetryExhausted = errors.New("max retries exceeded")

// ErrNoSinkConfigured means no order webhook exists for the bot. This is
// permanently non-retryable for that bot.
var ErrNoSinkConfigured = errors.New("no order webhook configured")

// RetryResult reports an accepted resubmission.
type RetryResult struct {
	Attempt int `json:"attempt"`
}

const defaultSubmitTimeout = 12 * time.Second

// RetryOrchestrator resubmits unfilled orders through the order sink.
//
// The ceiling check and the retry increment are atomic per order id, so
// overlapping verification cycles cannot double-submit the same order.
// A transport failure does not consume an attempt: only submissions the
// sink actually accepted count against the ceiling.
type RetryOrchestrator struct {
	sink    port.OrderSink
	repo    port.Repository
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRetryOrchestrator(sink port.OrderSink, repo port.Repository) *RetryOrchestrator {
	return &RetryOrchestrator{
		sink:    sink,
		repo:    repo,
		timeout: defaultSubmitTimeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Retry resubmits the order as a clean market order derived from the
// original expected position, not the broker's current partial state.
func (o *RetryOrchestrator) Retry(ctx context.Context, order *model.PendingOrder) (RetryResult, error) {
	lock := o.orderLock(order.ID)
	lock.Lock()
	defer lock.Unlock()

	if order.Exhausted() {
		return RetryResult{}, ErrRetryExhausted
	}
	if !o.sink.Configured(order.Bot) {
		return RetryResult{}, ErrNoSinkConfigured
	}

	action := "buy"
	if order.Expected.Side == model.SideShort {
		action = "sell"
	}
	sub := port.OrderSubmission{
		Ticker:    order.Symbol,
		Action:    action,
		Quantity:  order.Expected.Size,
		OrderType: string(model.OrderMarket),
	}

	log.Info().
		Str("order", order.ID).
		Str("bot", order.Bot).
		Int("attempt", order.Retries+1).
		Msg("retrying order")

	sctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.sink.Submit(sctx, order.Bot, sub); err != nil {
		return RetryResult{}, fmt.Errorf("submit retry %s: %w", order.ID, err)
	}

	order.Retries++

	ev := model.NewEvent(model.EventRetrySent, time.Now(), map[string]any{
		"order":   order.ID,
		"bot":     order.Bot,
		"payload": sub,
		"attempt": order.Retries,
	})
	if err := o.repo.AppendEvent(ctx, ev); err != nil {
		log.Error().Err(err).Str("order", order.ID).Msg("audit append failed for retry_sent")
	}

	return RetryResult{Attempt: order.Retries}, nil
}

func (o *RetryOrchestrator) orderLock(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l, ok := o.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	o.locks[id] = l
	return l
}

// Forget drops the per-order lock once the order is pruned.
func (o *RetryOrchestrator) Forget(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.locks, id)
}
