package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options controls how tabular files are read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension (',' or '\t' for .tsv).
	Delimiter rune
}

// DefaultOptions returns reasonable defaults for reading input files.
func DefaultOptions() Options {
	return Options{}
}

// HeaderSet is the ordered list of column names of one input file.
// It is empty when the file could not be read.
type HeaderSet []string

// Contains reports whether the header set has an exact column name.
func (h HeaderSet) Contains(name string) bool {
	for _, c := range h {
		if c == name {
			return true
		}
	}
	return false
}

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("file is empty")

// CheckInput validates an input path the way the CLI expects: the file must
// exist, be a .csv or .tsv, and be nonempty.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("cannot read file: %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".tsv") {
		return fmt.Errorf("file must be a CSV file: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	return nil
}

func newReader(r io.Reader, path string, opt Options) *csv.Reader {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	// cells are trimmed after reading; leading-space trimming would swallow empty tab fields
	cr.TrimLeadingSpace = delim != '\t' && delim != ' '
	cr.Comma = delim
	return cr
}

func readHeaderRow(cr *csv.Reader) (HeaderSet, error) {
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	out := make(HeaderSet, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		// duplicate names get a ".N" suffix so every column stays addressable
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out, nil
}

// ReadHeader reads only the header row of a file.
func ReadHeader(path string, opt Options) (HeaderSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return readHeaderRow(newReader(f, path, opt))
}

// IndexHeaders reads the header row of every path. A file that cannot be read
// contributes an empty HeaderSet and a warning; indices always line up with paths.
func IndexHeaders(paths []string, opt Options) ([]HeaderSet, []string) {
	out := make([]HeaderSet, len(paths))
	var warnings []string
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			out[i] = HeaderSet{}
			continue
		}
		h, err := ReadHeader(p, opt)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read %s: %v", p, err))
			out[i] = HeaderSet{}
			continue
		}
		out[i] = h
	}
	return out, warnings
}

// ReadFile loads the full contents of a file into a Table. Short rows are
// padded with missing cells and extra cells are dropped.
func ReadFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	cr := newReader(f, path, opt)
	header, err := readHeaderRow(cr)
	if err != nil {
		return nil, err
	}
	ncol := len(header)
	cells := make([][]string, ncol)
	rows := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		rows++
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			cells[j] = append(cells[j], v)
		}
	}
	t := New(filepath.Base(path), rows)
	for j, name := range header {
		col := cells[j]
		if col == nil {
			col = []string{}
		}
		if err := t.Add(NewColumn(name, col)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

// dateLayouts are tried in order; month-first slash dates win over day-first.
var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006",
	"2006-01-02T15:04:05",
}

// ColumnDateLayout returns the first layout that parses every non-missing
// cell, so a whole column is read with one interpretation.
func ColumnDateLayout(cells []string) (string, bool) {
	seen := false
	for _, l := range dateLayouts {
		ok := true
		for _, c := range cells {
			if IsMissingCell(c) {
				continue
			}
			seen = true
			if _, err := time.Parse(l, strings.TrimSpace(c)); err != nil {
				ok = false
				break
			}
		}
		if !seen {
			return "", false
		}
		if ok {
			return l, true
		}
	}
	return "", false
}

// ParseDate tries the supported date layouts in order.
func ParseDate(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
