package port

import "context"

// OrderSubmission is the resubmission payload sent to the order webhook.
// Retries always go out as market orders for guaranteed fill, whatever
// the original order type was.
type OrderSubmission struct {
	Ticker    string `json:"ticker"`
	Action    string `json:"action"`
	Quantity  int    `json:"quantity"`
	OrderType string `json:"orderType"`
}

// OrderSink submits orders to the external execution webhook, one
// endpoint per bot with an optional shared default.
type OrderSink interface {
	// Configured reports whether a submission endpoint exists for the bot.
	Configured(bot string) bool

	// Submit posts the order. Success means the sink accepted the
	// submission, not that the broker filled it.
	Submit(ctx context.Context, bot string, sub OrderSubmission) error
}
