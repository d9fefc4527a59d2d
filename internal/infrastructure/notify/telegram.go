package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"caretaker/internal/application/port"
)

// TelegramAlerter delivers alerts through the Telegram bot API.
type TelegramAlerter struct {
	botToken string
	chatID   string
	client   *http.Client
}

func NewTelegramAlerter(botToken, chatID string) (*TelegramAlerter, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat id are required")
	}
	return &TelegramAlerter{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (t *TelegramAlerter) Name() string { return "telegram" }

func (t *TelegramAlerter) Send(ctx context.Context, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	payload := map[string]any{
		"chat_id": t.chatID,
		"text":    message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned HTTP %d", resp.StatusCode)
	}
	return nil
}

var _ port.Alerter = (*TelegramAlerter)(nil)
