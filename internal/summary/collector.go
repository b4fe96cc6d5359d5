package summary

import (
	"errors"

	"census/internal/diag"
	"census/internal/unit"
)

// ErrNoCurrentUnit is returned when a message or line count is reported
// while no unit is active. Reporting into the void is a driver
// sequencing bug and fails fast rather than dropping silently.
var ErrNoCurrentUnit = errors.New("summary: no current unit")

// Collector populates one GlobalSummary from the analyzer's sequential
// enter/log/leave call pattern. At most one unit is current at any
// time; all logged messages apply to it. Not safe for concurrent use:
// parallel drivers run one Collector per worker and merge the trees.
type Collector struct {
	resolver    *unit.Resolver
	minSeverity diag.Severity
	global      *GlobalSummary
	current     UnitSummary
}

// NewCollector creates a Collector over a fresh tree. A nil resolver
// gets the default platform scheme set.
func NewCollector(resolver *unit.Resolver, minSeverity diag.Severity) *Collector {
	if resolver == nil {
		resolver = unit.NewResolver()
	}
	return &Collector{
		resolver:    resolver,
		minSeverity: minSeverity,
		global:      NewGlobalSummary(),
	}
}

// Global returns the tree being populated.
func (c *Collector) Global() *GlobalSummary {
	return c.global
}

// library resolves an identifier into its owning container and returns
// the (possibly new) library summary.
func (c *Collector) library(raw string) *LibrarySummary {
	id, scope, pkg := c.resolver.Resolve(raw)
	switch scope {
	case unit.ScopeSystem:
		return c.global.SystemLibrary(id.String())
	case unit.ScopePackage:
		return c.global.Package(pkg).Library(id.String())
	default:
		return c.global.LooseLibrary(id.String())
	}
}

// EnterLibrary makes the library for raw the current unit, creating it
// on first entry. Re-entering an identifier reuses the existing object
// and keeps its accumulated lines and messages.
func (c *Collector) EnterLibrary(raw string) *LibrarySummary {
	l := c.library(raw)
	c.current = l
	return l
}

// LeaveLibrary clears the current unit. Calling it without a matching
// enter is a no-op; mismatched driver sequences are tolerated.
func (c *Collector) LeaveLibrary() {
	c.current = nil
}

// EnterHTML makes the HTML unit for raw the current unit. HTML units
// are never scoped to the platform or a package; they always live in
// the loose container.
func (c *Collector) EnterHTML(raw string) *HTMLSummary {
	h := c.global.LooseHTML(unit.Parse(raw).String())
	c.current = h
	return h
}

// LeaveHTML clears the current unit; tolerant no-op like LeaveLibrary.
func (c *Collector) LeaveHTML() {
	c.current = nil
}

// ClearLibrary drops the library's stale messages and resets its line
// count, keeping the object itself (and its identity in the tree) for
// the next analysis pass.
func (c *Collector) ClearLibrary(raw string) {
	l := c.library(raw)
	l.ClearMessages()
	l.Lines = 0
}

// ClearHTML drops the messages of the named HTML unit if it exists.
func (c *Collector) ClearHTML(raw string) {
	id := unit.Parse(raw).String()
	if u, ok := c.global.Loose[id]; ok {
		if h, ok := u.(*HTMLSummary); ok {
			h.ClearMessages()
		}
	}
}

// ClearAll discards the whole tree.
func (c *Collector) ClearAll() {
	c.global = NewGlobalSummary()
	c.current = nil
}

// RecordLineCount adds n to the current library's line count. Multiple
// calls accumulate. HTML units track no lines, so the count is ignored
// while one is current.
func (c *Collector) RecordLineCount(n int) error {
	if c.current == nil {
		return ErrNoCurrentUnit
	}
	if l, ok := c.current.(*LibrarySummary); ok {
		l.Lines += n
	}
	return nil
}

// Log appends one message to the current unit. Messages below the
// collector's minimum severity are dropped here, not by the analyzer.
func (c *Collector) Log(kind string, sev diag.Severity, loc Location, text string) error {
	if c.current == nil {
		return ErrNoCurrentUnit
	}
	if !sev.AtLeast(c.minSeverity) {
		return nil
	}
	c.current.AddMessage(MessageSummary{
		Kind:     kind,
		Severity: sev.Label(),
		Location: loc,
		Text:     text,
	})
	return nil
}
