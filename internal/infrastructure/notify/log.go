package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"caretaker/internal/application/port"
)

// LogAlerter stands in when no alert channel is configured. The message
// still lands in the process log so nothing goes unrecorded.
type LogAlerter struct{}

func NewLogAlerter() *LogAlerter { return &LogAlerter{} }

func (l *LogAlerter) Name() string { return "log" }

func (l *LogAlerter) Send(ctx context.Context, message string) error {
	log.Warn().Str("alert", message).Msg("ALERT")
	return nil
}

var _ port.Alerter = (*LogAlerter)(nil)
