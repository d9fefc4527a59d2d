package model

import (
	"fmt"
	"strings"
	"time"
)

// Side of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	SideFlat  Side = "flat"
)

// OrderType of the original entry signal.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderStop   OrderType = "stop"
)

// PositionKey identifies one tracked position per bot and symbol.
type PositionKey struct {
	Bot    string `json:"bot"`
	Symbol string `json:"symbol"`
}

func (k PositionKey) String() string {
	return k.Bot + ":" + k.Symbol
}

// ExpectedPosition is what a bot should be holding according to the last
// entry signal it sent. At most one live entry exists per (bot, symbol).
type ExpectedPosition struct {
	Bot        string    `json:"bot"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Size       int       `json:"size"`
	EntryPrice *float64  `json:"entry_price,omitempty"`
	OrderType  OrderType `json:"order_type"`
	CreatedAt  time.Time `json:"created_at"`
	Verified   bool      `json:"verified"`
	Retries    int       `json:"retries"`
}

func (p ExpectedPosition) Key() PositionKey {
	return PositionKey{Bot: p.Bot, Symbol: p.Symbol}
}

// Describe renders the position the way alerts show it, e.g. "long 2".
func (p ExpectedPosition) Describe() string {
	return fmt.Sprintf("%s %d", p.Side, p.Size)
}

// ActualPosition is one net position as reported by the broker feed.
type ActualPosition struct {
	Symbol string `json:"symbol"`
	NetPos int    `json:"netPos"`
}

func (a ActualPosition) Side() Side {
	switch {
	case a.NetPos > 0:
		return SideLong
	case a.NetPos < 0:
		return SideShort
	default:
		return SideFlat
	}
}

func (a ActualPosition) Size() int {
	if a.NetPos < 0 {
		return -a.NetPos
	}
	return a.NetPos
}

func (a ActualPosition) Describe() string {
	if a.NetPos == 0 {
		return "FLAT"
	}
	return fmt.Sprintf("%s %d", a.Side(), a.Size())
}

// FormatPosition renders an account position for alerts and logs,
// e.g. "BOT-ALPHA: LONG 2 MNQ".
func FormatPosition(account string, p ActualPosition) string {
	if p.NetPos == 0 {
		return fmt.Sprintf("%s: FLAT %s", account, p.Symbol)
	}
	return fmt.Sprintf("%s: %s %d %s", account, strings.ToUpper(string(p.Side())), p.Size(), p.Symbol)
}

// PendingOrder tracks an entry signal until the broker confirms the fill.
// Retries is only ever advanced by the retry orchestrator, under its
// per-order lock.
type PendingOrder struct {
	ID              string           `json:"id"`
	Bot             string           `json:"bot"`
	Symbol          string           `json:"symbol"`
	Expected        ExpectedPosition `json:"expected"`
	EligibleCheckAt time.Time        `json:"eligible_check_at"`
	MaxRetries      int              `json:"max_retries"`
	Retries         int              `json:"retries"`
}

func (o *PendingOrder) Exhausted() bool {
	return o.Retries >= o.MaxRetries
}
