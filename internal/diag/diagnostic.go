package diag

import (
	"census/internal/source"
)

// Kind is the category tag of a diagnostic, e.g. an analyzer error
// class name or an ingest failure class.
type Kind string

// Kinds produced by the ingest layer itself.
const (
	IOLoadFileError Kind = "IOError"
	DecodeError     Kind = "DecodeError"
	RecordError     Kind = "RecordError"
)

func (k Kind) String() string { return string(k) }

// Diagnostic is one problem discovered while ingesting a diagnostic
// stream, located by a span inside the stream file.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Primary  source.Span
}

func New(sev Severity, kind Kind, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Kind:     kind,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(kind Kind, primary source.Span, msg string) Diagnostic {
	return New(SevError, kind, primary, msg)
}
