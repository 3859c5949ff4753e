// Package table holds the in-memory tabular representation shared by the
// pipeline stages, plus its sqlite snapshot persistence.
package table

// Value is a single cell: string, float64 or nil (missing).
type Value = any

// Table is a column-ordered collection of rows. Cells are loosely typed so a
// column may carry text in one stage and floats after numeric coercion.
type Table struct {
	cols []string
	pos  map[string]int
	rows []map[string]Value
}

func New(cols ...string) *Table {
	t := &Table{pos: make(map[string]int)}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) NumRows() int { return len(t.rows) }

func (t *Table) HasColumn(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// AddColumn registers a column if not already present. Existing rows read as
// nil for the new column.
func (t *Table) AddColumn(name string) {
	if _, ok := t.pos[name]; ok {
		return
	}
	t.pos[name] = len(t.cols)
	t.cols = append(t.cols, name)
}

// Append adds one row. Keys not yet registered as columns are appended in the
// order given by extraCols; keys absent from the row read as nil.
func (t *Table) Append(row map[string]Value, extraCols ...string) {
	for _, c := range extraCols {
		t.AddColumn(c)
	}
	for c := range row {
		t.AddColumn(c)
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Get(i int, col string) Value {
	return t.rows[i][col]
}

func (t *Table) Set(i int, col string, v Value) {
	t.AddColumn(col)
	t.rows[i][col] = v
}

// GetString reads a cell as text. Floats and nils read as "".
func (t *Table) GetString(i int, col string) string {
	if s, ok := t.rows[i][col].(string); ok {
		return s
	}
	return ""
}

// GetFloat reads a cell as float64. Non-float cells read as 0.
func (t *Table) GetFloat(i int, col string) float64 {
	if f, ok := t.rows[i][col].(float64); ok {
		return f
	}
	return 0
}

// Rename changes a column name in place, keeping its position.
func (t *Table) Rename(old, new string) {
	idx, ok := t.pos[old]
	if !ok || old == new {
		return
	}
	delete(t.pos, old)
	t.pos[new] = idx
	t.cols[idx] = new
	for _, row := range t.rows {
		if v, ok := row[old]; ok {
			row[new] = v
			delete(row, old)
		}
	}
}

// RenameAll applies fn to every column name.
func (t *Table) RenameAll(fn func(string) string) {
	for _, c := range t.Columns() {
		t.Rename(c, fn(c))
	}
}

// Stack appends all rows of other, unioning the column sets. Columns absent
// from either side read as nil, never an error.
func (t *Table) Stack(other *Table) {
	for _, c := range other.cols {
		t.AddColumn(c)
	}
	for _, row := range other.rows {
		copied := make(map[string]Value, len(row))
		for k, v := range row {
			copied[k] = v
		}
		t.rows = append(t.rows, copied)
	}
}

// IsNumeric reports whether every non-nil cell of the column is a float64,
// with at least one such cell present.
func (t *Table) IsNumeric(col string) bool {
	seen := false
	for _, row := range t.rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		if _, isFloat := v.(float64); !isFloat {
			return false
		}
		seen = true
	}
	return seen
}
