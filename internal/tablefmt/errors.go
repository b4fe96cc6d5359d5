package tablefmt

import "fmt"

// SchemaFrozenError reports a column declared after data entry began.
// The schema is frozen by the first appended value.
type SchemaFrozenError struct {
	Column string
}

func (e *SchemaFrozenError) Error() string {
	return fmt.Sprintf("tablefmt: column %q declared after data entry began", e.Column)
}

// MalformedTableError reports appended entries that do not fill whole
// rows. A ragged table would corrupt every downstream column width, so
// rendering refuses it outright.
type MalformedTableError struct {
	Cells   int // cells in the incomplete row
	Columns int // declared column count
}

func (e *MalformedTableError) Error() string {
	if e.Columns == 0 {
		return "tablefmt: no columns declared"
	}
	return fmt.Sprintf("tablefmt: incomplete row: %d of %d cells", e.Cells, e.Columns)
}
