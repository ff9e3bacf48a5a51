package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingMarkers are the cell values treated as absent, in addition to the empty string.
var missingMarkers = map[string]struct{}{
	"NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {}, "None": {}, "#N/A": {}, "-NaN": {},
}

// IsMissingCell reports whether a raw cell should be treated as a missing value.
func IsMissingCell(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return true
	}
	_, ok := missingMarkers[v]
	return ok
}

// Column is a single named column. Text holds the raw cells; when Numeric is
// true, Num is authoritative and NaN marks a missing value.
type Column struct {
	Name    string
	Text    []string
	Num     []float64
	Numeric bool
}

// NewColumn builds a column from raw cells and infers whether it is numeric:
// a column is numeric when every non-missing cell parses as a number.
func NewColumn(name string, cells []string) *Column {
	c := &Column{Name: name, Text: cells, Num: make([]float64, len(cells))}
	numeric := true
	for i, v := range cells {
		if IsMissingCell(v) {
			c.Num[i] = math.NaN()
			continue
		}
		x, ok := ParseNumber(v)
		if !ok {
			numeric = false
			c.Num[i] = math.NaN()
			continue
		}
		c.Num[i] = x
	}
	c.Numeric = numeric
	return c
}

// NewNumericColumn builds a numeric column directly from values.
func NewNumericColumn(name string, vals []float64) *Column {
	c := &Column{Name: name}
	c.SetNumbers(vals)
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Text) }

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	if c.Numeric {
		return math.IsNaN(c.Num[i])
	}
	return IsMissingCell(c.Text[i])
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for i := range c.Text {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// AllMissing reports whether the column has no values at all.
func (c *Column) AllMissing() bool { return c.MissingCount() == c.Len() }

// SetNumbers replaces the column contents with numbers and marks it numeric.
// Text is regenerated so that the raw view stays consistent.
func (c *Column) SetNumbers(vals []float64) {
	c.Num = vals
	c.Text = make([]string, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		c.Text[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	c.Numeric = true
}

// Key returns the join key of row i. Numeric cells are canonicalized so that
// "1" and "1.0" produce the same key. ok is false for missing cells.
func (c *Column) Key(i int) (string, bool) {
	if c.IsMissing(i) {
		return "", false
	}
	v := strings.TrimSpace(c.Text[i])
	if x, ok := ParseNumber(v); ok {
		return strconv.FormatFloat(x, 'g', -1, 64), true
	}
	return v, true
}

// Take returns a copy of the column reordered by idx; a negative index yields a missing cell.
func (c *Column) Take(idx []int) *Column {
	out := &Column{Name: c.Name, Numeric: c.Numeric, Text: make([]string, len(idx)), Num: make([]float64, len(idx))}
	for k, i := range idx {
		if i < 0 {
			out.Text[k] = ""
			out.Num[k] = math.NaN()
			continue
		}
		out.Text[k] = c.Text[i]
		out.Num[k] = c.Num[i]
	}
	return out
}

// Table is a column-oriented in-memory table.
type Table struct {
	Name  string
	cols  []*Column
	index map[string]int
	rows  int
}

// ErrLengthMismatch is returned when a column does not fit the table's row count.
var ErrLengthMismatch = errors.New("column length does not match table rows")

// New returns an empty table with the given row count.
func New(name string, rows int) *Table {
	return &Table{Name: name, index: map[string]int{}, rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Has reports whether a column with that exact name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Add appends a column; an existing column with the same name is replaced.
func (t *Table) Add(c *Column) error {
	if c.Len() != t.rows {
		return fmt.Errorf("add column %q: %w (%d != %d)", c.Name, ErrLengthMismatch, c.Len(), t.rows)
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// Select returns a new table holding copies of the named columns.
func (t *Table) Select(names ...string) (*Table, error) {
	out := New(t.Name, t.rows)
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("select: column %q not found", n)
		}
		if err := out.Add(c.Take(idx)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Take builds a new table whose row k is row idx[k] of t. A negative index
// yields a row of missing values. Used for joins that fan out rows.
func (t *Table) Take(idx []int) *Table {
	out := New(t.Name, len(idx))
	for _, c := range t.cols {
		nc := c.Take(idx)
		out.index[nc.Name] = len(out.cols)
		out.cols = append(out.cols, nc)
	}
	return out
}

// ParseNumber parses a trimmed cell as a float.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
