package model

// DiscrepancyType classifies how an actual position diverges from the
// expected one. The set is closed: dispatch switches over it exhaustively.
type DiscrepancyType string

const (
	MissingPosition DiscrepancyType = "missing_position"
	WrongDirection  DiscrepancyType = "wrong_direction"
	SizeMismatch    DiscrepancyType = "size_mismatch"
)

// Severity of a discrepancy. Fixed by type, never assigned ad hoc.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// SeverityOf maps each discrepancy type to its severity. A reversed
// position is far more dangerous than a missing or short one.
func SeverityOf(t DiscrepancyType) Severity {
	switch t {
	case WrongDirection:
		return SeverityCritical
	case MissingPosition:
		return SeverityHigh
	case SizeMismatch:
		return SeverityMedium
	}
	return SeverityMedium
}

// Discrepancy is one detected mismatch, produced per verification cycle.
// It is logged, never persisted as an entity.
type Discrepancy struct {
	Type     DiscrepancyType `json:"type"`
	Bot      string          `json:"bot"`
	Symbol   string          `json:"symbol"`
	Expected string          `json:"expected"`
	Actual   string          `json:"actual"`
	Severity Severity        `json:"severity"`
}

// NewDiscrepancy builds a discrepancy with its severity derived from type.
func NewDiscrepancy(t DiscrepancyType, bot, symbol, expected, actual string) Discrepancy {
	return Discrepancy{
		Type:     t,
		Bot:      bot,
		Symbol:   symbol,
		Expected: expected,
		Actual:   actual,
		Severity: SeverityOf(t),
	}
}
