package pos

import "github.com/shopspring/decimal"

// VarianceLevel classifies a closing cash variance
type VarianceLevel string

const (
	VarianceBalanced      VarianceLevel = "balanced"
	VarianceOverTolerance VarianceLevel = "over_tolerance"
	VarianceCritical      VarianceLevel = "critical"
)

// VarianceThresholds bound the absolute cash variance tolerated at close.
// |variance| <= Tolerance is balanced, above Critical is critical.
type VarianceThresholds struct {
	Tolerance decimal.Decimal
	Critical  decimal.Decimal
}

// DefaultVarianceThresholds returns the thresholds used when none are configured
func DefaultVarianceThresholds() VarianceThresholds {
	return VarianceThresholds{
		Tolerance: decimal.NewFromInt(50),
		Critical:  decimal.NewFromInt(500),
	}
}

// Classify buckets a variance (shortage or overage) by magnitude
func (t VarianceThresholds) Classify(variance decimal.Decimal) VarianceLevel {
	abs := variance.Abs()
	switch {
	case abs.LessThanOrEqual(t.Tolerance):
		return VarianceBalanced
	case abs.LessThanOrEqual(t.Critical):
		return VarianceOverTolerance
	default:
		return VarianceCritical
	}
}
