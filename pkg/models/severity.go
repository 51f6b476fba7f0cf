package models

// Severity classifies a complexity value against a threshold.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DefaultThreshold is the complexity value above which a function is no longer "low".
const DefaultThreshold = 10

// Classify maps a complexity value to a severity band.
// C <= T is low, C <= 1.5*T is medium, anything above is high.
func Classify(complexity, threshold int) Severity {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	switch {
	case complexity <= threshold:
		return SeverityLow
	case float64(complexity) <= 1.5*float64(threshold):
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
