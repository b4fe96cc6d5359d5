// Package tablefmt builds plain-text tables in two phases: first the
// column schema is declared, then entries are appended cell by cell.
// Column widths grow monotonically while entries arrive, so rows are
// buffered and serialized only when the table is complete.
package tablefmt

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const minColumnWidth = 5

type column struct {
	name   string
	header string
	width  int
}

type rowKind uint8

const (
	rowData rowKind = iota
	rowHeader
	rowDivider
)

type row struct {
	kind  rowKind
	cells []string
}

// LegendEntry maps an abbreviated header back to its full column name.
type LegendEntry struct {
	Abbreviation string
	Name         string
}

// Table accumulates a rectangular grid of strings. The zero value is
// not usable; call New.
type Table struct {
	cols    []column
	rows    []row
	pending []string
	legend  []LegendEntry
	taken   map[string]bool
	frozen  bool
}

// New creates an empty table.
func New() *Table {
	return &Table{taken: make(map[string]bool)}
}

// DeclareColumn adds one column. When abbreviate is set, the display
// header is the name with every lowercase letter stripped, made unique
// among abbreviations by appending apostrophes; the full name goes to
// the trailing legend. Declaring a column after data entry began fails
// with *SchemaFrozenError.
func (t *Table) DeclareColumn(name string, abbreviate bool) error {
	if t.frozen {
		return &SchemaFrozenError{Column: name}
	}
	header := name
	if abbreviate {
		header = abbreviateName(name)
		for t.taken[header] {
			header += "'"
		}
		t.taken[header] = true
		t.legend = append(t.legend, LegendEntry{Abbreviation: header, Name: name})
	}
	width := runewidth.StringWidth(header) + 1
	if width < minColumnWidth {
		width = minColumnWidth
	}
	t.cols = append(t.cols, column{name: name, header: header, width: width})
	return nil
}

// Columns returns the declared column count.
func (t *Table) Columns() int {
	return len(t.cols)
}

// Legend returns the abbreviation legend in declaration order.
func (t *Table) Legend() []LegendEntry {
	return t.legend
}

// Append adds one cell value, converted to text. Cells fill the current
// row left to right; a full row is committed automatically. Appending
// to a table with no columns fails with *MalformedTableError.
func (t *Table) Append(value any) error {
	if len(t.cols) == 0 {
		return &MalformedTableError{}
	}
	t.frozen = true
	text := fmt.Sprint(value)
	col := &t.cols[len(t.pending)]
	if w := runewidth.StringWidth(text) + 1; w > col.width {
		col.width = w
	}
	t.pending = append(t.pending, text)
	if len(t.pending) == len(t.cols) {
		t.rows = append(t.rows, row{kind: rowData, cells: t.pending})
		t.pending = nil
	}
	return nil
}

// AppendAll appends every value in order.
func (t *Table) AppendAll(values ...any) error {
	for _, v := range values {
		if err := t.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// InsertHeaderRow repeats the header row mid-table, for readability in
// long tables. Only allowed on a row boundary.
func (t *Table) InsertHeaderRow() error {
	if err := t.rowBoundary(); err != nil {
		return err
	}
	t.frozen = true
	t.rows = append(t.rows, row{kind: rowHeader})
	return nil
}

// InsertDivider adds a row of dash-filled cells between sections. Only
// allowed on a row boundary. The dashes are sized when the table is
// rendered, after every width is final.
func (t *Table) InsertDivider() error {
	if err := t.rowBoundary(); err != nil {
		return err
	}
	t.frozen = true
	t.rows = append(t.rows, row{kind: rowDivider})
	return nil
}

func (t *Table) rowBoundary() error {
	if len(t.pending) != 0 {
		return &MalformedTableError{Cells: len(t.pending), Columns: len(t.cols)}
	}
	return nil
}

// Render serializes the table: a header row, every buffered row with
// the first column left-aligned and the rest right-aligned, then a
// blank line and one legend line per abbreviation. A trailing partial
// row fails with *MalformedTableError.
func (t *Table) Render(w io.Writer) error {
	if len(t.pending) != 0 {
		return &MalformedTableError{Cells: len(t.pending), Columns: len(t.cols)}
	}
	if err := t.writeRow(w, t.headerCells()); err != nil {
		return err
	}
	for _, r := range t.rows {
		var cells []string
		switch r.kind {
		case rowHeader:
			cells = t.headerCells()
		case rowDivider:
			cells = t.dividerCells()
		default:
			cells = r.cells
		}
		if err := t.writeRow(w, cells); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, e := range t.legend {
		if _, err := fmt.Fprintf(w, "%s: %s\n", e.Abbreviation, e.Name); err != nil {
			return err
		}
	}
	return nil
}

// String renders into a string, panicking on malformed input. Callers
// that cannot guarantee well-formedness use Render.
func (t *Table) String() string {
	var b strings.Builder
	if err := t.Render(&b); err != nil {
		panic(err)
	}
	return b.String()
}

func (t *Table) headerCells() []string {
	cells := make([]string, len(t.cols))
	for i, c := range t.cols {
		cells[i] = c.header
	}
	return cells
}

func (t *Table) dividerCells() []string {
	cells := make([]string, len(t.cols))
	for i, c := range t.cols {
		cells[i] = strings.Repeat("-", c.width-1)
	}
	return cells
}

func (t *Table) writeRow(w io.Writer, cells []string) error {
	var b strings.Builder
	for i, cell := range cells {
		if i == 0 {
			b.WriteString(runewidth.FillRight(cell, t.cols[i].width))
		} else {
			b.WriteString(runewidth.FillLeft(cell, t.cols[i].width))
		}
	}
	_, err := fmt.Fprintln(w, b.String())
	return err
}

// abbreviateName strips every lowercase letter, e.g. "TypeError"
// becomes "TE".
func abbreviateName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if !unicode.IsLower(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
