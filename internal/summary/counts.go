package summary

// OtherPackage is the attribution bucket for units with no package
// context (platform and loose units).
const OtherPackage = "*other*"

// Counts accumulates per-package, per-kind message counts and line
// totals in one depth-first traversal of a completed tree. All four
// result maps are always filled; consumers take what they need.
type Counts struct {
	// ErrorCount maps package name to per-kind message counts.
	ErrorCount map[string]map[string]int
	// LinesOfCode maps package name to the total lines across its
	// libraries.
	LinesOfCode map[string]int
	// Totals maps message kind to its count over the whole tree.
	Totals map[string]int
	// TotalLinesOfCode is the grand total over every library.
	TotalLinesOfCode int

	kindOrder    []string
	packageOrder []string
	seenKind     map[string]bool
	seenPackage  map[string]bool
	current      string
}

// NewCounts creates an empty accumulator.
func NewCounts() *Counts {
	return &Counts{
		ErrorCount:  make(map[string]map[string]int),
		LinesOfCode: make(map[string]int),
		Totals:      make(map[string]int),
		seenKind:    make(map[string]bool),
		seenPackage: make(map[string]bool),
	}
}

// Collect runs the traversal. The walk is deterministic: platform
// units first, then packages, then loose units, each in sorted order.
func (c *Counts) Collect(g *GlobalSummary) {
	g.Accept(c)
}

// KindOrder returns message kinds in first-seen traversal order.
func (c *Counts) KindOrder() []string {
	return c.kindOrder
}

// PackageOrder returns package names in first-seen traversal order,
// including OtherPackage when it received any unit.
func (c *Counts) PackageOrder() []string {
	return c.packageOrder
}

func (c *Counts) VisitGlobal(g *GlobalSummary) {
	c.current = OtherPackage
	for _, id := range g.SystemIdentifiers() {
		g.System[id].Accept(c)
	}
	for _, name := range g.PackageNames() {
		g.Packages[name].Accept(c)
	}
	// Loose units carry no package context either.
	c.current = OtherPackage
	for _, id := range g.LooseIdentifiers() {
		g.Loose[id].Accept(c)
	}
}

func (c *Counts) VisitPackage(p *PackageSummary) {
	c.current = p.Name
	c.touchPackage()
	for _, id := range p.LibraryIdentifiers() {
		p.Libraries[id].Accept(c)
	}
}

func (c *Counts) VisitLibrary(l *LibrarySummary) {
	c.touchPackage()
	c.LinesOfCode[c.current] += l.Lines
	c.TotalLinesOfCode += l.Lines
	for i := range l.Messages {
		l.Messages[i].Accept(c)
	}
}

func (c *Counts) VisitHTML(h *HTMLSummary) {
	c.touchPackage()
	for i := range h.Messages {
		h.Messages[i].Accept(c)
	}
}

func (c *Counts) VisitMessage(m *MessageSummary) {
	if !c.seenKind[m.Kind] {
		c.seenKind[m.Kind] = true
		c.kindOrder = append(c.kindOrder, m.Kind)
	}
	c.ErrorCount[c.current][m.Kind]++
	c.Totals[m.Kind]++
}

func (c *Counts) touchPackage() {
	if !c.seenPackage[c.current] {
		c.seenPackage[c.current] = true
		c.packageOrder = append(c.packageOrder, c.current)
		c.ErrorCount[c.current] = make(map[string]int)
	}
}
