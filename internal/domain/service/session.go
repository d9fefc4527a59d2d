package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// WindowConfig is one named intraday trading range, HH:MM inclusive.
type WindowConfig struct {
	Name  string
	Start string
	End   string
}

type window struct {
	name  string
	start int // minute of day
	end   int
}

// SessionClock answers whether a given instant falls inside an active
// trading window. It is a pure function of the wall clock; all state is
// fixed at construction.
type SessionClock struct {
	loc     *time.Location
	days    map[time.Weekday]bool
	windows []window
	eodMin  int
}

// NewSessionClock builds a clock for the given IANA zone, weekdays and
// windows. eodCheck is the HH:MM at which the flatten check becomes due.
func NewSessionClock(timezone string, days []time.Weekday, windows []WindowConfig, eodCheck string) (*SessionClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	daySet := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		daySet[d] = true
	}

	parsed := make([]window, 0, len(windows))
	for _, w := range windows {
		start, err := parseMinute(w.Start)
		if err != nil {
			return nil, fmt.Errorf("window %s start: %w", w.Name, err)
		}
		end, err := parseMinute(w.End)
		if err != nil {
			return nil, fmt.Errorf("window %s end: %w", w.Name, err)
		}
		if end < start {
			return nil, fmt.Errorf("window %s ends before it starts", w.Name)
		}
		parsed = append(parsed, window{name: w.Name, start: start, end: end})
	}

	eodMin := 16 * 60
	if strings.TrimSpace(eodCheck) != "" {
		eodMin, err = parseMinute(eodCheck)
		if err != nil {
			return nil, fmt.Errorf("eod check time: %w", err)
		}
	}

	return &SessionClock{loc: loc, days: daySet, windows: parsed, eodMin: eodMin}, nil
}

// Active reports whether t falls on a trading day inside any window.
func (c *SessionClock) Active(t time.Time) bool {
	local := t.In(c.loc)
	if !c.days[local.Weekday()] {
		return false
	}
	min := local.Hour()*60 + local.Minute()
	for _, w := range c.windows {
		if min >= w.start && min <= w.end {
			return true
		}
	}
	return false
}

// AfterClose reports whether t is past the EOD check time on a trading
// day. Positions still open at this point are alert-worthy.
func (c *SessionClock) AfterClose(t time.Time) bool {
	local := t.In(c.loc)
	if !c.days[local.Weekday()] {
		return false
	}
	return local.Hour()*60+local.Minute() >= c.eodMin
}

// ActiveWindow returns the name of the window containing t, if any.
func (c *SessionClock) ActiveWindow(t time.Time) (string, bool) {
	local := t.In(c.loc)
	if !c.days[local.Weekday()] {
		return "", false
	}
	min := local.Hour()*60 + local.Minute()
	for _, w := range c.windows {
		if min >= w.start && min <= w.end {
			return w.name, true
		}
	}
	return "", false
}

func parseMinute(hhmm string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad time %q, want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", hhmm)
	}
	return h*60 + m, nil
}

// ParseWeekdays converts short day names from config into weekdays.
// Unknown names are dropped with a warning rather than failing startup.
func ParseWeekdays(names []string) []time.Weekday {
	lookup := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}
	var out []time.Weekday
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := lookup[key]
		if !ok {
			log.Warn().Str("day", n).Msg("unknown trading day in config, skipping")
			continue
		}
		out = append(out, d)
	}
	return out
}
