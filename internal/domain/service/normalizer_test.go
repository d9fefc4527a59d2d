package service

import (
	"errors"
	"testing"
	"time"

	"caretaker/internal/domain/model"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"CME:MNQ":  "MNQ",
		"mnq":      "MNQ",
		" NASDAQ:NQ ": "NQ",
		"ES":       "ES",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeBuySignal(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	sig := model.Signal{Action: "buy", Ticker: "CME:MNQ", Quantity: float64(2), OrderType: "market"}

	intent, exp, err := Normalize("alpha", sig, now)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if intent != IntentEntry {
		t.Fatalf("expected entry intent, got %v", intent)
	}
	if exp.Bot != "alpha" || exp.Symbol != "MNQ" {
		t.Errorf("unexpected key: %s:%s", exp.Bot, exp.Symbol)
	}
	if exp.Side != model.SideLong {
		t.Errorf("expected long, got %s", exp.Side)
	}
	if exp.Size != 2 {
		t.Errorf("expected size 2, got %d", exp.Size)
	}
	if exp.OrderType != model.OrderMarket {
		t.Errorf("expected market, got %s", exp.OrderType)
	}
	if !exp.CreatedAt.Equal(now) {
		t.Errorf("expected createdAt %v, got %v", now, exp.CreatedAt)
	}
}

func TestNormalizeSellIsShort(t *testing.T) {
	_, exp, err := Normalize("alpha", model.Signal{Action: "sell", Ticker: "ES"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.Side != model.SideShort {
		t.Errorf("expected short, got %s", exp.Side)
	}
}

func TestNormalizeMissingTickerRejected(t *testing.T) {
	_, _, err := Normalize("alpha", model.Signal{Action: "buy", Quantity: float64(1)}, time.Now())
	if !errors.Is(err, ErrMissingTicker) {
		t.Fatalf("expected ErrMissingTicker, got %v", err)
	}

	_, _, err = Normalize("alpha", model.Signal{Action: "exit"}, time.Now())
	if !errors.Is(err, ErrMissingTicker) {
		t.Fatalf("expected ErrMissingTicker for exit, got %v", err)
	}
}

func TestNormalizeQuantityDefaults(t *testing.T) {
	// absent
	_, exp, err := Normalize("alpha", model.Signal{Action: "buy", Ticker: "MNQ"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.Size != 1 {
		t.Errorf("absent quantity should default to 1, got %d", exp.Size)
	}

	// non-numeric
	_, exp, err = Normalize("alpha", model.Signal{Action: "buy", Ticker: "MNQ", Quantity: "lots"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.Size != 1 {
		t.Errorf("non-numeric quantity should default to 1, got %d", exp.Size)
	}

	// string number, as TradingView templates often send
	_, exp, err = Normalize("alpha", model.Signal{Action: "buy", Ticker: "MNQ", Quantity: "3"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.Size != 3 {
		t.Errorf("expected size 3, got %d", exp.Size)
	}
}

func TestNormalizePricePreference(t *testing.T) {
	_, exp, err := Normalize("alpha", model.Signal{
		Action:     "buy",
		Ticker:     "MNQ",
		LimitPrice: float64(18000.25),
		Price:      float64(17999),
	}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.EntryPrice == nil || *exp.EntryPrice != 18000.25 {
		t.Errorf("expected limit price preferred, got %v", exp.EntryPrice)
	}

	_, exp, err = Normalize("alpha", model.Signal{Action: "buy", Ticker: "MNQ"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.EntryPrice != nil {
		t.Errorf("expected nil price, got %v", *exp.EntryPrice)
	}
}

func TestNormalizeExit(t *testing.T) {
	intent, exp, err := Normalize("alpha", model.Signal{Action: "exit", Ticker: "CME:MNQ"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if intent != IntentExit {
		t.Fatalf("expected exit intent, got %v", intent)
	}
	if exp.Symbol != "MNQ" {
		t.Errorf("expected MNQ, got %s", exp.Symbol)
	}
}

func TestNormalizeUnknownAction(t *testing.T) {
	intent, _, err := Normalize("alpha", model.Signal{Action: "hold", Ticker: "MNQ"}, time.Now())
	if err != nil {
		t.Fatalf("unknown action should not error: %v", err)
	}
	if intent != IntentUnknown {
		t.Fatalf("expected unknown intent, got %v", intent)
	}
}

func TestNormalizeSymbolFallsBackToSymbolField(t *testing.T) {
	_, exp, err := Normalize("alpha", model.Signal{Action: "buy", Symbol: "CME:NQ"}, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if exp.Symbol != "NQ" {
		t.Errorf("expected NQ, got %s", exp.Symbol)
	}
}
