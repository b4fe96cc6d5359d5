package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label returns the lower-case form recorded in summaries.
func (s Severity) Label() string {
	return strings.ToLower(s.String())
}

// AtLeast reports whether s meets the given minimum threshold.
func (s Severity) AtLeast(minSeverity Severity) bool {
	return s >= minSeverity
}

// ParseSeverity maps a case-insensitive severity name to its value.
// Unknown names report false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SevInfo, true
	case "warning", "warn":
		return SevWarning, true
	case "error":
		return SevError, true
	}
	return SevInfo, false
}
