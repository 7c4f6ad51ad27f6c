package models

// SeverityLevel is a coarse band derived from a numeric STRIDE score
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "CRITICAL"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityLow      SeverityLevel = "LOW"
	SeverityNone     SeverityLevel = "NONE"
)

// SeverityFor maps a 0-10 score to its severity band
func SeverityFor(score float64) SeverityLevel {
	switch {
	case score >= 9:
		return SeverityCritical
	case score >= 7:
		return SeverityHigh
	case score >= 4:
		return SeverityMedium
	case score > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// SARIFLevel returns the SARIF result level for the band
func (s SeverityLevel) SARIFLevel() string {
	switch s {
	case SeverityCritical, SeverityHigh:
		return "error"
	case SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func (s SeverityLevel) String() string {
	return string(s)
}
