package service

import (
	"testing"
	"time"
)

func newTestClock(t *testing.T) *SessionClock {
	t.Helper()
	clock, err := NewSessionClock(
		"America/New_York",
		[]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		[]WindowConfig{
			{Name: "NY_AM", Start: "09:45", End: "11:00"},
			{Name: "NY_PM", Start: "13:45", End: "16:00"},
		},
		"16:00",
	)
	if err != nil {
		t.Fatalf("NewSessionClock failed: %v", err)
	}
	return clock
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestSessionActiveInsideWindow(t *testing.T) {
	clock := newTestClock(t)

	// Monday 2025-03-10, 10:00 NY
	if !clock.Active(nyTime(t, 2025, 3, 10, 10, 0)) {
		t.Error("10:00 Monday should be active (NY_AM)")
	}
	if !clock.Active(nyTime(t, 2025, 3, 10, 14, 30)) {
		t.Error("14:30 Monday should be active (NY_PM)")
	}
}

func TestSessionInactiveBetweenWindows(t *testing.T) {
	clock := newTestClock(t)
	if clock.Active(nyTime(t, 2025, 3, 10, 12, 0)) {
		t.Error("noon Monday falls between windows, should be inactive")
	}
	if clock.Active(nyTime(t, 2025, 3, 10, 8, 0)) {
		t.Error("08:00 Monday is before open, should be inactive")
	}
}

func TestSessionInactiveOnWeekend(t *testing.T) {
	clock := newTestClock(t)
	// Saturday 2025-03-08, 10:00 NY
	if clock.Active(nyTime(t, 2025, 3, 8, 10, 0)) {
		t.Error("Saturday should never be active")
	}
}

func TestSessionWindowBoundariesInclusive(t *testing.T) {
	clock := newTestClock(t)
	if !clock.Active(nyTime(t, 2025, 3, 10, 9, 45)) {
		t.Error("window start should be inclusive")
	}
	if !clock.Active(nyTime(t, 2025, 3, 10, 11, 0)) {
		t.Error("window end should be inclusive")
	}
	if clock.Active(nyTime(t, 2025, 3, 10, 11, 1)) {
		t.Error("one minute past the window should be inactive")
	}
}

func TestSessionAfterClose(t *testing.T) {
	clock := newTestClock(t)
	if clock.AfterClose(nyTime(t, 2025, 3, 10, 15, 59)) {
		t.Error("15:59 is before the EOD check")
	}
	if !clock.AfterClose(nyTime(t, 2025, 3, 10, 16, 0)) {
		t.Error("16:00 should be past close")
	}
	if clock.AfterClose(nyTime(t, 2025, 3, 8, 17, 0)) {
		t.Error("weekend evenings never trigger the EOD check")
	}
}

func TestActiveWindowName(t *testing.T) {
	clock := newTestClock(t)
	name, ok := clock.ActiveWindow(nyTime(t, 2025, 3, 10, 10, 0))
	if !ok || name != "NY_AM" {
		t.Errorf("expected NY_AM, got %q ok=%v", name, ok)
	}
	if _, ok := clock.ActiveWindow(nyTime(t, 2025, 3, 10, 12, 0)); ok {
		t.Error("no window should be active at noon")
	}
}

func TestNewSessionClockRejectsBadInput(t *testing.T) {
	if _, err := NewSessionClock("Mars/Olympus", nil, nil, ""); err == nil {
		t.Error("bad timezone should fail")
	}
	_, err := NewSessionClock("UTC", nil, []WindowConfig{{Name: "x", Start: "11:00", End: "09:00"}}, "")
	if err == nil {
		t.Error("window ending before it starts should fail")
	}
	_, err = NewSessionClock("UTC", nil, []WindowConfig{{Name: "x", Start: "9am", End: "10:00"}}, "")
	if err == nil {
		t.Error("unparseable window time should fail")
	}
}

func TestParseWeekdays(t *testing.T) {
	days := ParseWeekdays([]string{"Mon", "friday", "Nope", "tue"})
	if len(days) != 3 {
		t.Fatalf("expected 3 days parsed, got %d (%v)", len(days), days)
	}
	if days[0] != time.Monday || days[1] != time.Friday || days[2] != time.Tuesday {
		t.Errorf("unexpected parse result: %v", days)
	}
}
