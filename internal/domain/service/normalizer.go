package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"caretaker/internal/domain/model"
)

// ErrMissingTicker rejects signals that carry no ticker or symbol.
// Accepting them would create a bogus position keyed by an empty symbol.
var ErrMissingTicker = errors.New("signal has no ticker or symbol")

// Intent is what an inbound signal asks the tracker to do.
type Intent int

const (
	IntentEntry Intent = iota
	IntentExit
	IntentUnknown
)

var exchangePrefix = regexp.MustCompile(`^[A-Z]+:`)

// NormalizeSymbol strips an exchange prefix (CME:MNQ -> MNQ) and uppercases.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return exchangePrefix.ReplaceAllString(s, "")
}

// Normalize turns a raw webhook signal into a canonical expected position.
//
// buy/sell yield IntentEntry with a fully populated position; exit yields
// IntentExit with only the key fields set; anything else is IntentUnknown.
// Entry and exit both require a ticker.
func Normalize(bot string, sig model.Signal, now time.Time) (Intent, model.ExpectedPosition, error) {
	action := strings.ToLower(strings.TrimSpace(sig.Action))

	switch action {
	case "buy", "sell":
		symbol := NormalizeSymbol(sig.RawSymbol())
		if symbol == "" {
			return IntentEntry, model.ExpectedPosition{}, ErrMissingTicker
		}
		side := model.SideLong
		if action == "sell" {
			side = model.SideShort
		}
		return IntentEntry, model.ExpectedPosition{
			Bot:        bot,
			Symbol:     symbol,
			Side:       side,
			Size:       sig.ParsedQuantity(),
			EntryPrice: sig.ParsedPrice(),
			OrderType:  normalizeOrderType(sig.OrderType),
			CreatedAt:  now,
		}, nil

	case "exit", "flat":
		symbol := NormalizeSymbol(sig.RawSymbol())
		if symbol == "" {
			return IntentExit, model.ExpectedPosition{}, ErrMissingTicker
		}
		return IntentExit, model.ExpectedPosition{Bot: bot, Symbol: symbol}, nil
	}

	return IntentUnknown, model.ExpectedPosition{}, nil
}

func normalizeOrderType(raw string) model.OrderType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "limit":
		return model.OrderLimit
	case "stop":
		return model.OrderStop
	default:
		return model.OrderMarket
	}
}
