package driver

// Record is one line of a diagnostic stream (*.diag.jsonl): either a
// message reported against a unit, a line-count report for a unit, or
// both. The analyzer that produced the stream has already resolved
// message positions to file/line/column.
type Record struct {
	// Unit is the URI-like identifier of the unit the record belongs
	// to, e.g. "package:foo/bar.dart" or "dart:core". Required.
	Unit string `json:"unit"`

	// Lines adds to the unit's accumulated source line count.
	Lines int `json:"lines,omitempty"`

	// Kind tags the message, e.g. an analyzer error class name. A
	// record without a kind carries no message.
	Kind     string `json:"kind,omitempty"`
	Severity string `json:"severity,omitempty"`
	Text     string `json:"text,omitempty"`

	// Resolved message position.
	File      string `json:"file,omitempty"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// HasMessage reports whether the record carries a diagnostic message.
func (r Record) HasMessage() bool {
	return r.Kind != ""
}

// HasLines reports whether the record carries a line count.
func (r Record) HasLines() bool {
	return r.Lines > 0
}
