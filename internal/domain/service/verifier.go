package service

import (
	"time"

	"caretaker/internal/domain/model"
)

// DefaultGracePeriod is how long an order gets to fill before a missing
// position counts as a discrepancy.
const DefaultGracePeriod = 30 * time.Second

// Verification is the outcome of one cycle: detected discrepancies plus
// the keys whose positions matched and should be flagged verified.
type Verification struct {
	Discrepancies []model.Discrepancy
	VerifiedKeys  []model.PositionKey
}

// Verify compares expected positions against one broker snapshot.
//
// Entries younger than the grace period are skipped entirely. For the
// rest, classification runs in priority order: a flat or absent actual is
// missing_position; a side mismatch is wrong_direction even when sizes
// coincide; a size mismatch on the same side is size_mismatch. Entries
// that match exactly are reported verified and emit nothing, which keeps
// repeated cycles over an unchanged snapshot from re-alerting.
func Verify(expected []model.ExpectedPosition, actuals []model.ActualPosition, now time.Time, grace time.Duration) Verification {
	var out Verification

	for _, exp := range expected {
		if now.Sub(exp.CreatedAt) < grace {
			continue
		}

		actual, found := findActual(actuals, exp.Symbol)

		switch {
		case !found || actual.NetPos == 0:
			out.Discrepancies = append(out.Discrepancies, model.NewDiscrepancy(
				model.MissingPosition, exp.Bot, exp.Symbol, exp.Describe(), "FLAT"))

		case actual.Side() != exp.Side:
			out.Discrepancies = append(out.Discrepancies, model.NewDiscrepancy(
				model.WrongDirection, exp.Bot, exp.Symbol, exp.Describe(), actual.Describe()))

		case actual.Size() != exp.Size:
			out.Discrepancies = append(out.Discrepancies, model.NewDiscrepancy(
				model.SizeMismatch, exp.Bot, exp.Symbol, exp.Describe(), actual.Describe()))

		default:
			out.VerifiedKeys = append(out.VerifiedKeys, exp.Key())
		}
	}

	return out
}

// findActual returns the first reported position for the symbol. The
// broker feed reports at most one net position per symbol per account.
func findActual(actuals []model.ActualPosition, symbol string) (model.ActualPosition, bool) {
	for _, a := range actuals {
		if NormalizeSymbol(a.Symbol) == symbol {
			return a, true
		}
	}
	return model.ActualPosition{}, false
}

// OpenPositions filters a snapshot down to nonzero net positions. Used by
// the end-of-day flatten check.
func OpenPositions(actuals []model.ActualPosition) []model.ActualPosition {
	var open []model.ActualPosition
	for _, a := range actuals {
		if a.NetPos != 0 {
			open = append(open, a)
		}
	}
	return open
}
