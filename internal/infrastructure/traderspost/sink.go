package traderspost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caretaker/internal/application/port"
)

// Sink submits orders to TradersPost-style webhooks, one URL per bot
// with an optional shared default.
type Sink struct {
	webhooks map[string]string
	fallback string
	client   *http.Client
}

func New(webhooks map[string]string, fallback string) *Sink {
	return &Sink{
		webhooks: webhooks,
		fallback: strings.TrimSpace(fallback),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Sink) Configured(bot string) bool {
	return s.urlFor(bot) != ""
}

// Submit posts the order payload. A 2xx response means the webhook
// accepted the submission; anything else is a transport-level failure
// surfaced to the orchestrator.
func (s *Sink) Submit(ctx context.Context, bot string, sub port.OrderSubmission) error {
	url := s.urlFor(bot)
	if url == "" {
		return fmt.Errorf("no webhook for bot %s", bot)
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func (s *Sink) urlFor(bot string) string {
	if url, ok := s.webhooks[bot]; ok && strings.TrimSpace(url) != "" {
		return url
	}
	return s.fallback
}

var _ port.OrderSink = (*Sink)(nil)
