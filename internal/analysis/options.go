package analysis

import (
	"fmt"
	"strings"
)

// Direction selects which tail of the distribution counts as anomalous.
type Direction string

const (
	Both  Direction = "both"
	Upper Direction = "upper"
	Lower Direction = "lower"
)

// ParseDirection accepts both|upper|lower (also two-sided|high|low).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "two-sided":
		return Both, nil
	case "upper", "high":
		return Upper, nil
	case "lower", "low":
		return Lower, nil
	}
	return "", fmt.Errorf("unsupported anomaly direction: %s (use both|upper|lower)", s)
}

const (
	DefaultTypeThreshold    = 0.8
	DefaultAnomalyThreshold = 2.0
)

// Options controls inference and detection behavior. It is passed to every
// call; the package keeps no global configuration.
type Options struct {
	// TypeThreshold is the minimum fraction of non-missing values that must
	// match a type for the column to be classified as that type.
	TypeThreshold float64
	// AnomalyThreshold is the |z| at or above which a value is flagged.
	AnomalyThreshold float64
	AnomalyDirection Direction
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TypeThreshold:    DefaultTypeThreshold,
		AnomalyThreshold: DefaultAnomalyThreshold,
		AnomalyDirection: Both,
	}
}

func (o Options) typeThreshold() float64 {
	if o.TypeThreshold <= 0 || o.TypeThreshold > 1 {
		return DefaultTypeThreshold
	}
	return o.TypeThreshold
}

func (o Options) anomalyThreshold() float64 {
	if o.AnomalyThreshold <= 0 {
		return DefaultAnomalyThreshold
	}
	return o.AnomalyThreshold
}

func (o Options) direction() Direction {
	switch o.AnomalyDirection {
	case Upper, Lower:
		return o.AnomalyDirection
	}
	return Both
}
