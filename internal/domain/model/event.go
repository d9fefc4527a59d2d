package model

import (
	"encoding/json"
	"time"
)

// Audit event kinds. The set matches what dashboard and signal-feed
// consumers already parse out of the NDJSON log.
const (
	EventAlertReceived   = "alert_received"
	EventRetrySent       = "retry_sent"
	EventDiscrepancy     = "discrepancy"
	EventAlert           = "alert"
	EventPositionUpdate  = "position_update"
	EventEODPositionOpen = "eod_position_open"
)

// Event is one audit-log record. On the wire it is a single flat JSON
// object: {"event":..., "timestamp":..., ...payload}, one per line.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   map[string]any
}

// NewEvent builds an audit event stamped with the given time in UTC.
func NewEvent(kind string, ts time.Time, payload map[string]any) Event {
	return Event{Kind: kind, Timestamp: ts.UTC(), Payload: payload}
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Payload)+2)
	for k, v := range e.Payload {
		m[k] = v
	}
	m["event"] = e.Kind
	m["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	return json.Marshal(m)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if kind, ok := m["event"].(string); ok {
		e.Kind = kind
	}
	if raw, ok := m["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.Timestamp = ts
		}
	}
	delete(m, "event")
	delete(m, "timestamp")
	e.Payload = m
	return nil
}
