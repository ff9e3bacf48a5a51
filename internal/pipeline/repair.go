package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// Matrix is a dense, row-major numeric feature matrix.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// Repair fills gaps in the named feature columns and returns them as a dense
// matrix. Entirely missing columns become 0, numeric gaps take the median and
// text gaps take the most frequent value. The table's columns are replaced by
// their repaired numeric versions.
func (a *Assembler) Repair(t *table.Table, columns []string) (Matrix, error) {
	var names []string
	var data [][]float64
	for _, name := range columns {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		vals := a.repairColumn(col)
		if err := t.Add(table.NewNumericColumn(name, vals)); err != nil {
			return Matrix{}, err
		}
		names = append(names, name)
		data = append(data, vals)
	}
	if len(names) == 0 {
		return Matrix{}, ErrNoFeatures
	}

	leftover := 0
	rows := make([][]float64, t.Len())
	for i := range rows {
		row := make([]float64, len(names))
		for j := range names {
			v := data[j][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
				leftover++
			}
			row[j] = v
		}
		rows[i] = row
	}
	if leftover > 0 {
		a.warn("Still have NaN values after filling; filling remaining gaps with 0.", zap.Int("cells", leftover))
	}
	return Matrix{Columns: names, Rows: rows}, nil
}

func (a *Assembler) repairColumn(col *table.Column) []float64 {
	n := col.Len()
	out := make([]float64, n)
	if col.AllMissing() {
		return out
	}
	if col.Numeric {
		med := median(col.Num)
		for i, v := range col.Num {
			if math.IsNaN(v) {
				v = med
			}
			out[i] = v
		}
		return out
	}

	fill, hasMode := mode(col)
	cells := make([]string, n)
	for i, v := range col.Text {
		if col.IsMissing(i) {
			if !hasMode {
				cells[i] = "0"
				continue
			}
			v = fill
		}
		cells[i] = strings.TrimSpace(v)
	}
	if vals, ok := parseAll(cells); ok {
		return vals
	}
	codes := map[string]float64{}
	for i, v := range cells {
		c, ok := codes[v]
		if !ok {
			c = float64(len(codes))
			codes[v] = c
		}
		out[i] = c
	}
	a.warn(fmt.Sprintf("Column '%s' is not numeric; encoded %d categories as integer codes.", col.Name, len(codes)),
		zap.String("column", col.Name))
	return out
}

// parseAll converts every cell to a number, accepting true/false as 1/0.
func parseAll(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, v := range cells {
		if x, ok := table.ParseNumber(v); ok {
			out[i] = x
			continue
		}
		switch strings.ToLower(v) {
		case "true":
			out[i] = 1
		case "false":
			out[i] = 0
		default:
			return nil, false
		}
	}
	return out, true
}

// median of the non-NaN values; the mean of the middle pair for even counts.
func median(vals []float64) float64 {
	s := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			s = append(s, v)
		}
	}
	if len(s) == 0 {
		return 0
	}
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// mode returns the most frequent non-missing text value; ties go to the
// lexicographically smallest.
func mode(col *table.Column) (string, bool) {
	counts := map[string]int{}
	for i, v := range col.Text {
		if col.IsMissing(i) {
			continue
		}
		counts[strings.TrimSpace(v)]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}
