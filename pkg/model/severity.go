package model

// Severity represents the severity level of a security finding.
// All values are lowercase strings.
type Severity string

const (
	// SeverityCritical represents immediate system compromise (RCE, auth bypass).
	SeverityCritical Severity = "critical"

	// SeverityHigh represents significant impact requiring prompt fix.
	SeverityHigh Severity = "high"

	// SeverityMedium represents moderate impact.
	SeverityMedium Severity = "medium"

	// SeverityLow represents limited impact (verbose errors, minor info leak).
	SeverityLow Severity = "low"

	// SeverityInfo represents informational findings with no direct
	// security impact.
	SeverityInfo Severity = "info"
)

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// String returns the severity as a string.
func (s Severity) String() string { return string(s) }
