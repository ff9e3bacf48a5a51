package pipeline

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// categoricalColumns are encoded as integer codes by exact name.
var categoricalColumns = map[string]bool{"plan_type": true, "region": true}

// Normalize converts date-like and categorical resolved columns to numbers in
// place. A date column that does not parse is left untouched.
func (a *Assembler) Normalize(t *table.Table, m schema.Mapping) {
	idName := m[schema.RoleID].Column
	seen := map[string]bool{}
	for _, r := range m.Roles() {
		if r == schema.RoleID {
			continue
		}
		name := m[r].Column
		if seen[name] || name == idName {
			continue
		}
		seen[name] = true
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "date") || strings.Contains(lower, "active"):
			if dayOffsets(col) {
				a.logger().Debug("converted date column", zap.String("column", name))
			}
		case categoricalColumns[name]:
			categoryCodes(col)
			a.logger().Debug("encoded categorical column", zap.String("column", name))
		}
	}
}

// dayOffsets replaces a column of dates with whole days since the column's
// earliest date. It reports false and leaves the column unchanged unless every
// non-missing cell parses as a date. A layout that fits the whole column is
// preferred; mixed-format columns fall back to per-cell parsing.
func dayOffsets(c *table.Column) bool {
	if c.Numeric {
		return false
	}
	parse := table.ParseDate
	if layout, ok := table.ColumnDateLayout(c.Text); ok {
		parse = func(v string) (time.Time, bool) {
			ts, err := time.Parse(layout, strings.TrimSpace(v))
			return ts, err == nil
		}
	}
	times := make([]time.Time, c.Len())
	present := make([]bool, c.Len())
	var minT time.Time
	found := false
	for i, v := range c.Text {
		if c.IsMissing(i) {
			continue
		}
		ts, ok := parse(v)
		if !ok {
			return false
		}
		times[i], present[i] = ts, true
		if !found || ts.Before(minT) {
			minT, found = ts, true
		}
	}
	out := make([]float64, c.Len())
	for i := range out {
		if !present[i] {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Floor(times[i].Sub(minT).Hours() / 24)
	}
	c.SetNumbers(out)
	return true
}

// categoryCodes assigns integer codes in order of first appearance.
func categoryCodes(c *table.Column) {
	codes := map[string]float64{}
	out := make([]float64, c.Len())
	for i, v := range c.Text {
		if c.IsMissing(i) {
			out[i] = math.NaN()
			continue
		}
		key := strings.TrimSpace(v)
		code, ok := codes[key]
		if !ok {
			code = float64(len(codes))
			codes[key] = code
		}
		out[i] = code
	}
	c.SetNumbers(out)
}
