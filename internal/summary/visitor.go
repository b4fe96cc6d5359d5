package summary

// Visitor receives one callback per node kind. Nodes perform pure
// double dispatch; the visitor decides whether and in which order to
// descend, which lets it carry context (such as the package a library
// is attributed to) across nested visits.
type Visitor interface {
	VisitGlobal(*GlobalSummary)
	VisitPackage(*PackageSummary)
	VisitLibrary(*LibrarySummary)
	VisitHTML(*HTMLSummary)
	VisitMessage(*MessageSummary)
}

// Node is implemented by every summary tree node.
type Node interface {
	Accept(Visitor)
}

func (g *GlobalSummary) Accept(v Visitor)  { v.VisitGlobal(g) }
func (p *PackageSummary) Accept(v Visitor) { v.VisitPackage(p) }
func (l *LibrarySummary) Accept(v Visitor) { v.VisitLibrary(l) }
func (h *HTMLSummary) Accept(v Visitor)    { v.VisitHTML(h) }
func (m *MessageSummary) Accept(v Visitor) { v.VisitMessage(m) }
