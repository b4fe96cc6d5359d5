package summary

import (
	"errors"
	"testing"

	"census/internal/diag"
)

func newTestCollector() *Collector {
	return NewCollector(nil, diag.SevInfo)
}

func TestCollector_EnterLibraryIdempotent(t *testing.T) {
	c := newTestCollector()

	first := c.EnterLibrary("package:foo/bar.dart")
	if err := c.RecordLineCount(10); err != nil {
		t.Fatalf("RecordLineCount: %v", err)
	}
	if err := c.Log("TypeError", diag.SevError, Location{}, "bad"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	c.LeaveLibrary()

	second := c.EnterLibrary("package:foo/bar.dart")
	c.LeaveLibrary()

	if first != second {
		t.Fatalf("re-entering the same identifier created a second object")
	}
	if second.Lines != 10 {
		t.Errorf("Lines = %d, want 10 (re-enter must not reset)", second.Lines)
	}
	if len(second.Messages) != 1 {
		t.Errorf("Messages = %d, want 1 (re-enter must not reset)", len(second.Messages))
	}

	pkg, ok := c.Global().Packages["foo"]
	if !ok {
		t.Fatalf("package foo was not created")
	}
	if len(pkg.Libraries) != 1 {
		t.Errorf("libraries in foo = %d, want exactly 1", len(pkg.Libraries))
	}
}

func TestCollector_ScopeRouting(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		inSystem  bool
		inPackage string
		inLoose   bool
	}{
		{name: "platform", id: "dart:core", inSystem: true},
		{name: "package", id: "package:foo/bar.dart", inPackage: "foo"},
		{name: "file uri", id: "file:///a.dart", inLoose: true},
		{name: "malformed", id: ":::", inLoose: true},
		{name: "no scheme", id: "plain.dart", inLoose: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCollector()
			c.EnterLibrary(tt.id)
			c.LeaveLibrary()
			g := c.Global()

			if tt.inSystem {
				if len(g.System) != 1 {
					t.Errorf("expected %q in system scope", tt.id)
				}
				return
			}
			if tt.inPackage != "" {
				if _, ok := g.Packages[tt.inPackage]; !ok {
					t.Errorf("expected %q under package %q", tt.id, tt.inPackage)
				}
				return
			}
			if tt.inLoose && len(g.Loose) != 1 {
				t.Errorf("expected %q in loose scope", tt.id)
			}
		})
	}
}

func TestCollector_LogWithoutCurrentUnit(t *testing.T) {
	c := newTestCollector()
	err := c.Log("TypeError", diag.SevError, Location{}, "orphan")
	if !errors.Is(err, ErrNoCurrentUnit) {
		t.Fatalf("Log without current unit: err = %v, want ErrNoCurrentUnit", err)
	}
	err = c.RecordLineCount(3)
	if !errors.Is(err, ErrNoCurrentUnit) {
		t.Fatalf("RecordLineCount without current unit: err = %v, want ErrNoCurrentUnit", err)
	}
}

func TestCollector_LeaveWithoutEnterIsNoop(t *testing.T) {
	c := newTestCollector()
	c.LeaveLibrary()
	c.LeaveHTML()
	if len(c.Global().Loose)+len(c.Global().System)+len(c.Global().Packages) != 0 {
		t.Errorf("leave without enter mutated the tree")
	}
}

func TestCollector_SeverityThreshold(t *testing.T) {
	c := NewCollector(nil, diag.SevWarning)
	c.EnterLibrary("package:p/l.dart")
	if err := c.Log("Hint", diag.SevInfo, Location{}, "below threshold"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := c.Log("TypeError", diag.SevError, Location{}, "kept"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	c.LeaveLibrary()

	l := c.Global().Packages["p"].Libraries["package:p/l.dart"]
	if len(l.Messages) != 1 {
		t.Fatalf("messages = %d, want 1 (info dropped)", len(l.Messages))
	}
	if l.Messages[0].Severity != "error" {
		t.Errorf("severity = %q, want lower-cased %q", l.Messages[0].Severity, "error")
	}
}

func TestCollector_ClearLibrary(t *testing.T) {
	c := newTestCollector()
	l := c.EnterLibrary("package:p/l.dart")
	c.RecordLineCount(42)
	c.Log("TypeError", diag.SevError, Location{}, "stale")
	c.LeaveLibrary()

	c.ClearLibrary("package:p/l.dart")

	if l.Lines != 0 {
		t.Errorf("Lines = %d after clear, want 0", l.Lines)
	}
	if len(l.Messages) != 0 {
		t.Errorf("Messages = %d after clear, want 0", len(l.Messages))
	}
	if again := c.EnterLibrary("package:p/l.dart"); again != l {
		t.Errorf("clear destroyed the library identity")
	}
}

func TestCollector_ClearHTML(t *testing.T) {
	c := newTestCollector()
	h := c.EnterHTML("file:///index.html")
	c.Log("UnknownTag", diag.SevWarning, Location{}, "stale")
	c.LeaveHTML()

	c.ClearHTML("file:///index.html")
	if len(h.Messages) != 0 {
		t.Errorf("Messages = %d after clear, want 0", len(h.Messages))
	}

	// Clearing an absent unit neither fails nor creates it.
	c.ClearHTML("file:///absent.html")
	if _, ok := c.Global().Loose["file:///absent.html"]; ok {
		t.Errorf("ClearHTML created an absent unit")
	}
}

func TestCollector_ClearAll(t *testing.T) {
	c := newTestCollector()
	c.EnterLibrary("dart:core")
	c.RecordLineCount(5)
	c.ClearAll()

	g := c.Global()
	if len(g.System)+len(g.Packages)+len(g.Loose) != 0 {
		t.Errorf("tree not empty after ClearAll")
	}
	if err := c.Log("TypeError", diag.SevError, Location{}, "x"); !errors.Is(err, ErrNoCurrentUnit) {
		t.Errorf("current unit survived ClearAll")
	}
}

func TestCollector_HTMLIgnoresLineCount(t *testing.T) {
	c := newTestCollector()
	c.EnterHTML("file:///index.html")
	if err := c.RecordLineCount(100); err != nil {
		t.Fatalf("RecordLineCount while HTML current: %v", err)
	}
	c.LeaveHTML()

	counts := NewCounts()
	counts.Collect(c.Global())
	if counts.TotalLinesOfCode != 0 {
		t.Errorf("TotalLinesOfCode = %d, want 0 (HTML units track no lines)", counts.TotalLinesOfCode)
	}
}

func TestCollector_LinesAccumulate(t *testing.T) {
	c := newTestCollector()
	l := c.EnterLibrary("package:p/l.dart")
	c.RecordLineCount(10)
	c.LeaveLibrary()
	c.EnterLibrary("package:p/l.dart")
	c.RecordLineCount(7)
	c.LeaveLibrary()
	if l.Lines != 17 {
		t.Errorf("Lines = %d, want 17 (additive across passes)", l.Lines)
	}
}
