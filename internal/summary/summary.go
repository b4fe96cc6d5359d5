// Package summary holds the hierarchical model of diagnostics reported
// while analyzing a tree of source units: a global root owning platform
// units, per-package units and loose units, each unit owning its
// ordered message records and (for libraries) an accumulated source
// line count.
package summary

import (
	"fmt"
	"sort"
)

// Location is a resolved source position attached to one message.
type Location struct {
	File      string
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// MessageSummary is one reported diagnostic. Immutable once created.
type MessageSummary struct {
	Kind     string
	Severity string // lower-cased
	Location Location
	Text     string
}

// LibrarySummary is one analyzed library unit. Lines accumulates across
// passes until explicitly cleared.
type LibrarySummary struct {
	Identifier string
	Lines      int
	Messages   []MessageSummary
}

// HTMLSummary is one analyzed non-library unit. No line count is
// tracked for these.
type HTMLSummary struct {
	Identifier string
	Messages   []MessageSummary
}

// PackageSummary is one distribution package, created lazily when the
// first unit belonging to it is entered.
type PackageSummary struct {
	Name      string
	Libraries map[string]*LibrarySummary
}

// UnitSummary is the common surface of library and HTML units: the leaf
// containers messages are appended to.
type UnitSummary interface {
	Node
	UnitIdentifier() string
	AddMessage(MessageSummary)
	ClearMessages()
}

func (l *LibrarySummary) UnitIdentifier() string { return l.Identifier }
func (h *HTMLSummary) UnitIdentifier() string    { return h.Identifier }

func (l *LibrarySummary) AddMessage(m MessageSummary) { l.Messages = append(l.Messages, m) }
func (h *HTMLSummary) AddMessage(m MessageSummary)    { h.Messages = append(h.Messages, m) }

func (l *LibrarySummary) ClearMessages() { l.Messages = nil }
func (h *HTMLSummary) ClearMessages()    { h.Messages = nil }

// GlobalSummary is the root of the tree and the sole owner of every
// summary object beneath it.
type GlobalSummary struct {
	System   map[string]*LibrarySummary
	Packages map[string]*PackageSummary
	Loose    map[string]UnitSummary
}

// NewGlobalSummary creates an empty root.
func NewGlobalSummary() *GlobalSummary {
	return &GlobalSummary{
		System:   make(map[string]*LibrarySummary),
		Packages: make(map[string]*PackageSummary),
		Loose:    make(map[string]UnitSummary),
	}
}

// Package returns the summary for name, creating it on first use.
func (g *GlobalSummary) Package(name string) *PackageSummary {
	p, ok := g.Packages[name]
	if !ok {
		p = &PackageSummary{
			Name:      name,
			Libraries: make(map[string]*LibrarySummary),
		}
		g.Packages[name] = p
	}
	return p
}

// Library returns the library for id within the package, creating it on
// first use.
func (p *PackageSummary) Library(id string) *LibrarySummary {
	l, ok := p.Libraries[id]
	if !ok {
		l = &LibrarySummary{Identifier: id}
		p.Libraries[id] = l
	}
	return l
}

// SystemLibrary returns the platform library for id, creating it on
// first use.
func (g *GlobalSummary) SystemLibrary(id string) *LibrarySummary {
	l, ok := g.System[id]
	if !ok {
		l = &LibrarySummary{Identifier: id}
		g.System[id] = l
	}
	return l
}

// LooseLibrary returns the loose library for id, creating it on first
// use. An identifier previously entered as an HTML unit keeps the most
// recent kind.
func (g *GlobalSummary) LooseLibrary(id string) *LibrarySummary {
	if u, ok := g.Loose[id]; ok {
		if l, ok := u.(*LibrarySummary); ok {
			return l
		}
	}
	l := &LibrarySummary{Identifier: id}
	g.Loose[id] = l
	return l
}

// LooseHTML returns the loose HTML unit for id, creating it on first
// use. See LooseLibrary for the kind-conflict rule.
func (g *GlobalSummary) LooseHTML(id string) *HTMLSummary {
	if u, ok := g.Loose[id]; ok {
		if h, ok := u.(*HTMLSummary); ok {
			return h
		}
	}
	h := &HTMLSummary{Identifier: id}
	g.Loose[id] = h
	return h
}

// SystemIdentifiers returns the platform unit identifiers in sorted
// order.
func (g *GlobalSummary) SystemIdentifiers() []string {
	return sortedKeys(g.System)
}

// PackageNames returns the package names in sorted order.
func (g *GlobalSummary) PackageNames() []string {
	return sortedKeys(g.Packages)
}

// LooseIdentifiers returns the loose unit identifiers in sorted order.
func (g *GlobalSummary) LooseIdentifiers() []string {
	return sortedKeys(g.Loose)
}

// LibraryIdentifiers returns the package's library identifiers in
// sorted order.
func (p *PackageSummary) LibraryIdentifiers() []string {
	return sortedKeys(p.Libraries)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge folds another tree into this one: lines add up, message
// sequences concatenate. Used after parallel ingest where each worker
// filled an independent tree.
func (g *GlobalSummary) Merge(other *GlobalSummary) {
	if other == nil {
		return
	}
	for _, id := range other.SystemIdentifiers() {
		mergeLibrary(g.SystemLibrary(id), other.System[id])
	}
	for _, name := range other.PackageNames() {
		dst := g.Package(name)
		src := other.Packages[name]
		for _, id := range src.LibraryIdentifiers() {
			mergeLibrary(dst.Library(id), src.Libraries[id])
		}
	}
	for _, id := range other.LooseIdentifiers() {
		switch u := other.Loose[id].(type) {
		case *LibrarySummary:
			mergeLibrary(g.LooseLibrary(id), u)
		case *HTMLSummary:
			dst := g.LooseHTML(id)
			dst.Messages = append(dst.Messages, u.Messages...)
		}
	}
}

func mergeLibrary(dst, src *LibrarySummary) {
	dst.Lines += src.Lines
	dst.Messages = append(dst.Messages, src.Messages...)
}
