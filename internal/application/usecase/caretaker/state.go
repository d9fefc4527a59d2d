package caretaker

import (
	"fmt"
	"sync"
	"time"

	"caretaker/internal/domain/model"
)

// State owns the expected positions and the pending-order list. All
// mutations go through one mutex; callers get copies, never live maps.
// The clock is injected so grace-period and pruning behavior is
// deterministic under test.
type State struct {
	mu  sync.Mutex
	now func() time.Time

	expected map[model.PositionKey]*model.ExpectedPosition
	pending  []*model.PendingOrder
}

func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		now:      now,
		expected: make(map[model.PositionKey]*model.ExpectedPosition),
		pending:  make([]*model.PendingOrder, 0),
	}
}

// Track replaces any expected position under the same key and opens a
// pending order that becomes eligible for verification after the grace
// period.
func (s *State) Track(exp model.ExpectedPosition, grace time.Duration, maxRetries int) *model.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := exp
	s.expected[exp.Key()] = &cp

	order := &model.PendingOrder{
		ID:              fmt.Sprintf("%s-%d", exp.Bot, exp.CreatedAt.UnixMilli()),
		Bot:             exp.Bot,
		Symbol:          exp.Symbol,
		Expected:        exp,
		EligibleCheckAt: exp.CreatedAt.Add(grace),
		MaxRetries:      maxRetries,
	}
	s.pending = append(s.pending, order)
	return order
}

// Remove deletes the expected position for the key. Removing an absent
// key is a no-op, not an error: an exit alert may arrive after a manual
// flatten.
func (s *State) Remove(key model.PositionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expected[key]; !ok {
		return false
	}
	delete(s.expected, key)
	return true
}

// All returns a snapshot copy of the expected positions.
func (s *State) All() []model.ExpectedPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ExpectedPosition, 0, len(s.expected))
	for _, p := range s.expected {
		out = append(out, *p)
	}
	return out
}

// MarkVerified flips the verified flag for matched keys.
func (s *State) MarkVerified(keys []model.PositionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if p, ok := s.expected[k]; ok {
			p.Verified = true
		}
	}
}

// NoteRetry advances the retry count on the live expected position after
// an accepted resubmission.
func (s *State) NoteRetry(key model.PositionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.expected[key]; ok {
		p.Retries++
	}
}

// PendingForBot returns the first pending order attributed to the bot.
func (s *State) PendingForBot(bot string) *model.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.pending {
		if o.Bot == bot {
			return o
		}
	}
	return nil
}

// PendingCount reports how many orders are still awaiting confirmation.
func (s *State) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Prune drops pending orders whose expected position is gone or already
// verified, and returns the ids it removed. Exhausted orders are dropped
// separately, after their escalation alert has gone out.
func (s *State) Prune() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	kept := s.pending[:0]
	for _, o := range s.pending {
		exp, live := s.expected[model.PositionKey{Bot: o.Bot, Symbol: o.Symbol}]
		if !live || exp.Verified {
			removed = append(removed, o.ID)
			continue
		}
		kept = append(kept, o)
	}
	s.pending = kept
	return removed
}

// Drop removes one pending order by id.
func (s *State) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, o := range s.pending {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	s.pending = kept
}
