package model

import (
	"strconv"
	"strings"
)

// Signal is the raw inbound webhook payload. TradingView templates are
// loose about field names and types, so quantity and price fields accept
// both JSON numbers and strings and are coerced on read.
type Signal struct {
	Action     string `json:"action"`
	Ticker     string `json:"ticker"`
	Symbol     string `json:"symbol"`
	Quantity   any    `json:"quantity"`
	Size       any    `json:"size"`
	Price      any    `json:"price"`
	EntryPrice any    `json:"entryPrice"`
	LimitPrice any    `json:"limitPrice"`
	OrderType  string `json:"orderType"`
	Side       string `json:"side"`
}

// RawSymbol returns the ticker, falling back to the symbol field.
func (s Signal) RawSymbol() string {
	if strings.TrimSpace(s.Ticker) != "" {
		return s.Ticker
	}
	return s.Symbol
}

// ParsedQuantity coerces quantity (or size) to a contract count.
// Absent or non-numeric values default to 1.
func (s Signal) ParsedQuantity() int {
	for _, v := range []any{s.Quantity, s.Size} {
		if n, ok := coerceInt(v); ok && n > 0 {
			return n
		}
	}
	return 1
}

// ParsedPrice returns the first usable price field, preferring the limit
// price, or nil when the signal carries none.
func (s Signal) ParsedPrice() *float64 {
	for _, v := range []any{s.LimitPrice, s.Price, s.EntryPrice} {
		if f, ok := coerceFloat(v); ok {
			return &f
		}
	}
	return nil
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
