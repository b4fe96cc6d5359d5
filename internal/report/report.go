// Package report renders a completed summary tree as a tabular
// overview: one row per distribution package with per-kind message
// counts and lines of code, a totals row and a percentage row.
package report

import (
	"fmt"
	"io"
	"strings"

	"census/internal/summary"
	"census/internal/tablefmt"
)

// Options configures report rendering.
type Options struct {
	// HeaderRepeat re-inserts the header row after every N package
	// rows for readability in long tables. Zero disables it.
	HeaderRepeat int
}

const (
	packageColumn = "Package"
	locColumn     = "LOC"
	totalLabel    = "total"
	percentLabel  = "%"
)

// Write aggregates the tree and renders the table into w. Kind columns
// appear in first-seen traversal order, package rows in first-seen
// order, with platform and loose units pooled under "*other*".
func Write(w io.Writer, g *summary.GlobalSummary, opts Options) error {
	counts := summary.NewCounts()
	counts.Collect(g)

	tbl := tablefmt.New()
	if err := tbl.DeclareColumn(packageColumn, false); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	kinds := counts.KindOrder()
	for _, kind := range kinds {
		if err := tbl.DeclareColumn(kind, true); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	if err := tbl.DeclareColumn(locColumn, false); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	appendRow := func(label string, cells []any) error {
		if err := tbl.Append(label); err != nil {
			return err
		}
		return tbl.AppendAll(cells...)
	}

	for i, pkg := range counts.PackageOrder() {
		if opts.HeaderRepeat > 0 && i > 0 && i%opts.HeaderRepeat == 0 {
			if err := tbl.InsertHeaderRow(); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
		cells := make([]any, 0, len(kinds)+1)
		for _, kind := range kinds {
			cells = append(cells, counts.ErrorCount[pkg][kind])
		}
		cells = append(cells, counts.LinesOfCode[pkg])
		if err := appendRow(pkg, cells); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	if err := tbl.InsertDivider(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	totals := make([]any, 0, len(kinds)+1)
	for _, kind := range kinds {
		totals = append(totals, counts.Totals[kind])
	}
	totals = append(totals, counts.TotalLinesOfCode)
	if err := appendRow(totalLabel, totals); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	// Each count as a share of the grand line total; the LOC cell is
	// the literal 100 by definition.
	percents := make([]any, 0, len(kinds)+1)
	for _, kind := range kinds {
		percents = append(percents, percentOf(counts.Totals[kind], counts.TotalLinesOfCode))
	}
	percents = append(percents, "100")
	if err := appendRow(percentLabel, percents); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := tbl.Render(w); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// String renders the report into a string.
func String(g *summary.GlobalSummary, opts Options) (string, error) {
	var b strings.Builder
	if err := Write(&b, g, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// percentOf formats count/total*100 to two decimals. An empty tree has
// a zero line total; that renders as 0.00 rather than failing.
func percentOf(count, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(count)/float64(total)*100)
}
