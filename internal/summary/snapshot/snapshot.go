// Package snapshot serializes summary trees so watch-mode runs can
// restore ingest state between processes. The rendered report itself is
// never persisted here; only the tree is.
package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"census/internal/summary"
)

// Current schema version - increment when the payload format changes.
const snapshotSchemaVersion uint16 = 1

type messageSnap struct {
	Kind      string
	Severity  string
	Text      string
	File      string
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

type librarySnap struct {
	Identifier string
	Lines      int
	Messages   []messageSnap
}

type htmlSnap struct {
	Identifier string
	Messages   []messageSnap
}

type packageSnap struct {
	Name      string
	Libraries []librarySnap
}

// payload is the flat wire form of a summary tree. The tree's maps and
// the loose container's mixed unit kinds do not serialize directly, so
// the tree is flattened into slices in sorted order.
type payload struct {
	Schema         uint16
	System         []librarySnap
	Packages       []packageSnap
	LooseLibraries []librarySnap
	LooseHTML      []htmlSnap
}

// Encode flattens and marshals a tree.
func Encode(g *summary.GlobalSummary) ([]byte, error) {
	data, err := msgpack.Marshal(flatten(g))
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode unmarshals and rebuilds a tree. Snapshots from a different
// schema version are rejected; callers treat that as a cache miss.
func Decode(data []byte) (*summary.GlobalSummary, error) {
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if p.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("snapshot: schema %d, want %d", p.Schema, snapshotSchemaVersion)
	}
	return rebuild(&p), nil
}

func flatten(g *summary.GlobalSummary) *payload {
	p := &payload{Schema: snapshotSchemaVersion}
	for _, id := range g.SystemIdentifiers() {
		p.System = append(p.System, flattenLibrary(g.System[id]))
	}
	for _, name := range g.PackageNames() {
		pkg := g.Packages[name]
		ps := packageSnap{Name: name}
		for _, id := range pkg.LibraryIdentifiers() {
			ps.Libraries = append(ps.Libraries, flattenLibrary(pkg.Libraries[id]))
		}
		p.Packages = append(p.Packages, ps)
	}
	for _, id := range g.LooseIdentifiers() {
		switch u := g.Loose[id].(type) {
		case *summary.LibrarySummary:
			p.LooseLibraries = append(p.LooseLibraries, flattenLibrary(u))
		case *summary.HTMLSummary:
			p.LooseHTML = append(p.LooseHTML, htmlSnap{
				Identifier: u.Identifier,
				Messages:   flattenMessages(u.Messages),
			})
		}
	}
	return p
}

func flattenLibrary(l *summary.LibrarySummary) librarySnap {
	return librarySnap{
		Identifier: l.Identifier,
		Lines:      l.Lines,
		Messages:   flattenMessages(l.Messages),
	}
}

func flattenMessages(msgs []summary.MessageSummary) []messageSnap {
	out := make([]messageSnap, len(msgs))
	for i, m := range msgs {
		out[i] = messageSnap{
			Kind:      m.Kind,
			Severity:  m.Severity,
			Text:      m.Text,
			File:      m.Location.File,
			StartLine: m.Location.StartLine,
			StartCol:  m.Location.StartCol,
			EndLine:   m.Location.EndLine,
			EndCol:    m.Location.EndCol,
		}
	}
	return out
}

func rebuild(p *payload) *summary.GlobalSummary {
	g := summary.NewGlobalSummary()
	for _, ls := range p.System {
		restoreLibrary(g.SystemLibrary(ls.Identifier), ls)
	}
	for _, ps := range p.Packages {
		pkg := g.Package(ps.Name)
		for _, ls := range ps.Libraries {
			restoreLibrary(pkg.Library(ls.Identifier), ls)
		}
	}
	for _, ls := range p.LooseLibraries {
		restoreLibrary(g.LooseLibrary(ls.Identifier), ls)
	}
	for _, hs := range p.LooseHTML {
		h := g.LooseHTML(hs.Identifier)
		h.Messages = rebuildMessages(hs.Messages)
	}
	return g
}

func restoreLibrary(l *summary.LibrarySummary, ls librarySnap) {
	l.Lines = ls.Lines
	l.Messages = rebuildMessages(ls.Messages)
}

func rebuildMessages(snaps []messageSnap) []summary.MessageSummary {
	if len(snaps) == 0 {
		return nil
	}
	out := make([]summary.MessageSummary, len(snaps))
	for i, s := range snaps {
		out[i] = summary.MessageSummary{
			Kind:     s.Kind,
			Severity: s.Severity,
			Text:     s.Text,
			Location: summary.Location{
				File:      s.File,
				StartLine: s.StartLine,
				StartCol:  s.StartCol,
				EndLine:   s.EndLine,
				EndCol:    s.EndCol,
			},
		}
	}
	return out
}
