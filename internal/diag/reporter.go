package diag

import "census/internal/source"

// Reporter is the minimal contract for receiving diagnostics from the
// ingest layer. Implementations: BagReporter (stores into a Bag),
// NopReporter, MinSeverityReporter (threshold filter).
type Reporter interface {
	Report(kind Kind, sev Severity, primary source.Span, msg string)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(kind Kind, sev Severity, primary source.Span, msg string) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(New(sev, kind, primary, msg))
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Kind, Severity, source.Span, string) {}

// MinSeverityReporter wraps another Reporter and drops diagnostics
// below the configured threshold.
type MinSeverityReporter struct {
	next Reporter
	min  Severity
}

// NewMinSeverityReporter returns a Reporter that forwards only
// diagnostics at or above min.
func NewMinSeverityReporter(next Reporter, minSeverity Severity) *MinSeverityReporter {
	return &MinSeverityReporter{next: next, min: minSeverity}
}

func (r *MinSeverityReporter) Report(kind Kind, sev Severity, primary source.Span, msg string) {
	if r == nil || !sev.AtLeast(r.min) {
		return
	}
	if r.next != nil {
		r.next.Report(kind, sev, primary, msg)
	}
}
