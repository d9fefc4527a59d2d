package caretaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"caretaker/internal/application/port"
	appservice "caretaker/internal/application/service"
	"caretaker/internal/domain/model"
	"caretaker/internal/domain/service"
)

// Service is the caretaker: it tracks what positions should exist based
// on received signals, verifies them against broker snapshots, retries
// unfilled orders and escalates what a retry cannot safely fix.
type Service struct {
	deps  Deps
	st    *State
	retry *appservice.RetryOrchestrator

	mu        sync.Mutex
	stats     Stats
	snapshots map[string][]model.ActualPosition // account -> latest broker report
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GracePeriod <= 0 {
		deps.GracePeriod = service.DefaultGracePeriod
	}
	if deps.MaxRetries <= 0 {
		deps.MaxRetries = 3
	}
	if deps.CheckInterval <= 0 {
		deps.CheckInterval = time.Minute
	}
	return &Service{
		deps:      deps,
		st:        NewState(deps.Now),
		retry:     appservice.NewRetryOrchestrator(deps.Sink, deps.Repo),
		snapshots: make(map[string][]model.ActualPosition),
	}
}

// ProcessAlert normalizes one inbound signal and updates tracking state.
// The audit record is appended before the caller acknowledges the
// webhook. Validation failures reject the signal loudly; a silently
// coerced default could misrepresent a real trading signal.
func (s *Service) ProcessAlert(ctx context.Context, bot string, sig model.Signal) (bool, error) {
	now := s.deps.Now()

	intent, exp, err := service.Normalize(bot, sig, now)
	if err != nil {
		log.Warn().Err(err).Str("bot", bot).Str("action", sig.Action).Msg("rejecting signal")
		return false, err
	}

	s.audit(ctx, model.EventAlertReceived, map[string]any{
		"bot":    bot,
		"alert":  sig,
		"symbol": exp.Symbol,
	})

	switch intent {
	case service.IntentEntry:
		order := s.st.Track(exp, s.deps.GracePeriod, s.deps.MaxRetries)
		s.mu.Lock()
		s.stats.OrdersMonitored++
		s.mu.Unlock()
		log.Info().
			Str("bot", bot).
			Str("symbol", exp.Symbol).
			Str("side", string(exp.Side)).
			Int("size", exp.Size).
			Str("order", order.ID).
			Msg("tracking expected position")
		return true, nil

	case service.IntentExit:
		removed := s.st.Remove(exp.Key())
		log.Info().
			Str("bot", bot).
			Str("symbol", exp.Symbol).
			Bool("was_tracked", removed).
			Msg("expecting flat")
		return true, nil
	}

	log.Warn().Str("bot", bot).Str("action", sig.Action).Msg("unrecognized action, ignoring")
	return false, nil
}

// VerifyPositions runs one verification cycle against a broker snapshot
// and dispatches whatever discrepancies it finds. Dispatch fans out per
// discrepancy so one slow order submission cannot stall verification of
// unrelated bots.
func (s *Service) VerifyPositions(ctx context.Context, account string, actuals []model.ActualPosition) []model.Discrepancy {
	now := s.deps.Now()

	s.mu.Lock()
	s.stats.LastCheck = now
	s.snapshots[account] = actuals
	s.mu.Unlock()

	s.audit(ctx, model.EventPositionUpdate, map[string]any{
		"account":   account,
		"positions": actuals,
	})

	ver := service.Verify(s.st.All(), actuals, now, s.deps.GracePeriod)
	s.st.MarkVerified(ver.VerifiedKeys)
	for _, k := range ver.VerifiedKeys {
		log.Info().Str("bot", k.Bot).Str("symbol", k.Symbol).Msg("position verified")
	}

	var wg sync.WaitGroup
	for _, d := range ver.Discrepancies {
		wg.Add(1)
		go func(d model.Discrepancy) {
			defer wg.Done()
			s.handleDiscrepancy(ctx, d)
		}(d)
	}
	wg.Wait()

	for _, id := range s.st.Prune() {
		s.retry.Forget(id)
	}
	return ver.Discrepancies
}

// handleDiscrepancy routes one discrepancy by severity. The switch is
// exhaustive over the closed severity set.
func (s *Service) handleDiscrepancy(ctx context.Context, d model.Discrepancy) {
	log.Warn().
		Str("type", string(d.Type)).
		Str("bot", d.Bot).
		Str("symbol", d.Symbol).
		Str("expected", d.Expected).
		Str("actual", d.Actual).
		Str("severity", string(d.Severity)).
		Msg("discrepancy detected")

	s.audit(ctx, model.EventDiscrepancy, map[string]any{
		"type":     d.Type,
		"bot":      d.Bot,
		"symbol":   d.Symbol,
		"expected": d.Expected,
		"actual":   d.Actual,
		"severity": d.Severity,
	})

	switch d.Severity {
	case model.SeverityCritical:
		// A reversed position means our model of reality is wrong in a
		// way a mechanical retry cannot safely fix. Never auto-correct.
		s.alert(ctx, fmt.Sprintf("CRITICAL: %s position mismatch! Expected %s, got %s", d.Bot, d.Expected, d.Actual))

	case model.SeverityHigh:
		if d.Type != model.MissingPosition {
			return
		}
		s.retryMissing(ctx, d)

	case model.SeverityMedium:
		// Partial fills are tolerated without intervention.
	}
}

func (s *Service) retryMissing(ctx context.Context, d model.Discrepancy) {
	order := s.st.PendingForBot(d.Bot)
	if order == nil {
		s.alert(ctx, fmt.Sprintf("%s: Position missing, max retries reached", d.Bot))
		return
	}

	res, err := s.retry.Retry(ctx, order)
	switch {
	case err == nil:
		s.st.NoteRetry(model.PositionKey{Bot: order.Bot, Symbol: order.Symbol})
		s.mu.Lock()
		s.stats.RetriesAttempted++
		s.mu.Unlock()
		log.Info().Str("bot", d.Bot).Int("attempt", res.Attempt).Msg("retry sent")

	case errors.Is(err, appservice.ErrRetryExhausted):
		s.alert(ctx, fmt.Sprintf("%s: Position missing, max retries reached", d.Bot))
		s.st.Drop(order.ID)
		s.retry.Forget(order.ID)

	default:
		s.alert(ctx, fmt.Sprintf("%s: Order retry failed - %v", d.Bot, err))
	}
}

// RetryBot triggers a manual retry for the bot's pending order.
func (s *Service) RetryBot(ctx context.Context, bot string) (appservice.RetryResult, error) {
	order := s.st.PendingForBot(bot)
	if order == nil {
		return appservice.RetryResult{}, fmt.Errorf("no pending order for bot %s", bot)
	}
	res, err := s.retry.Retry(ctx, order)
	if err != nil {
		return res, err
	}
	s.st.NoteRetry(model.PositionKey{Bot: order.Bot, Symbol: order.Symbol})
	s.mu.Lock()
	s.stats.RetriesAttempted++
	s.mu.Unlock()
	return res, nil
}

// CheckEOD reports any position still open after the session closed.
// Flattening is deliberately not automated; this only alerts.
func (s *Service) CheckEOD(ctx context.Context, account string, actuals []model.ActualPosition) EODReport {
	open := service.OpenPositions(actuals)
	if len(open) == 0 {
		log.Info().Str("account", account).Msg("all positions flat at EOD")
		return EODReport{Flat: true}
	}

	for _, p := range open {
		s.audit(ctx, model.EventEODPositionOpen, map[string]any{
			"account":  account,
			"position": p,
		})
		log.Warn().Str("account", account).Str("position", model.FormatPosition(account, p)).Msg("position still open at EOD")
	}

	msg := fmt.Sprintf("EOD: %d position(s) still open on %s:", len(open), account)
	for _, p := range open {
		msg += " " + p.Describe() + " " + p.Symbol + ";"
	}
	s.alert(ctx, msg)

	return EODReport{Flat: false, OpenPositions: open}
}

// SessionActive reports whether we are inside a trading window now.
func (s *Service) SessionActive() bool {
	return s.deps.Session.Active(s.deps.Now())
}

// Status returns the operator-facing summary.
func (s *Service) Status() Status {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()
	return Status{
		SessionActive:     s.SessionActive(),
		ExpectedPositions: s.st.All(),
		PendingOrders:     s.st.PendingCount(),
		Stats:             stats,
	}
}

// Expected returns the current expected positions snapshot.
func (s *Service) Expected() []model.ExpectedPosition {
	return s.st.All()
}

// RecentEvents reads back the tail of the audit log, newest first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.deps.Repo.RecentEvents(ctx, limit)
}

// Run consumes position feeds and drives the periodic re-check and the
// once-per-day EOD check. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	merged := make(chan port.PositionSnapshot, 64)

	for _, feed := range s.deps.Feeds {
		ch, err := feed.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", feed.Name(), err)
		}
		go func(name string, in <-chan port.PositionSnapshot) {
			for {
				select {
				case <-ctx.Done():
					return
				case snap, ok := <-in:
					if !ok {
						return
					}
					merged <- snap
				}
			}
		}(feed.Name(), ch)
		log.Info().Str("feed", feed.Name()).Msg("position feed started")
	}

	ticker := time.NewTicker(s.deps.CheckInterval)
	defer ticker.Stop()

	var lastEOD string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap := <-merged:
			s.VerifyPositions(ctx, snap.Account, snap.Positions)

		case <-ticker.C:
			now := s.deps.Now()
			if s.deps.Session.Active(now) {
				for account, positions := range s.cachedSnapshots() {
					s.VerifyPositions(ctx, account, positions)
				}
			}
			if s.deps.Session.AfterClose(now) {
				day := now.Format("2006-01-02")
				if day != lastEOD {
					lastEOD = day
					for account, positions := range s.cachedSnapshots() {
						s.CheckEOD(ctx, account, positions)
					}
				}
			}
		}
	}
}

func (s *Service) cachedSnapshots() map[string][]model.ActualPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]model.ActualPosition, len(s.snapshots))
	for k, v := range s.snapshots {
		out[k] = v
	}
	return out
}

// alert pushes a message through the alert channel and audits it. A
// delivery failure is logged locally; it never masks the discrepancy.
func (s *Service) alert(ctx context.Context, message string) {
	s.audit(ctx, model.EventAlert, map[string]any{"message": message})
	s.mu.Lock()
	s.stats.AlertsSent++
	s.mu.Unlock()

	if err := s.deps.Alerter.Send(ctx, message); err != nil {
		log.Error().Err(err).Str("channel", s.deps.Alerter.Name()).Str("message", message).Msg("alert delivery failed")
	}
}

func (s *Service) audit(ctx context.Context, kind string, payload map[string]any) {
	ev := model.NewEvent(kind, s.deps.Now(), payload)
	if err := s.deps.Repo.AppendEvent(ctx, ev); err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("audit append failed")
	}
}
