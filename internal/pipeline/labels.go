package pipeline

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// DefaultSeed seeds label noise when the caller does not supply a source.
const DefaultSeed int64 = 42

// LabelOptions controls synthetic label generation.
type LabelOptions struct {
	LoginsWeight   float64
	TicketsWeight  float64
	ActivityWeight float64
	// NoiseStd is the standard deviation of the Gaussian noise added to each row.
	NoiseStd float64
	// Threshold is the cut-off applied to probability plus noise.
	Threshold float64
}

// DefaultLabelOptions returns the standard risk-score weights: fewer logins,
// more tickets and less activity raise churn risk.
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{
		LoginsWeight:   -0.3,
		TicketsWeight:  0.4,
		ActivityWeight: -0.2,
		NoiseStd:       0.15,
		Threshold:      0.3,
	}
}

// requiredFeature returns the numeric column backing a required role.
func requiredFeature(t *table.Table, m schema.Mapping, r schema.Role) (*table.Column, error) {
	ref, ok := m[r]
	if !ok {
		return nil, &FeatureError{Role: r, Reason: "is not in the column map"}
	}
	col, ok := t.Column(ref.Column)
	if !ok {
		return nil, &FeatureError{Role: r, Column: ref.Column, Reason: "is missing from the merged table"}
	}
	if !col.Numeric {
		return nil, &FeatureError{Role: r, Column: ref.Column, Reason: "is not numeric"}
	}
	return col, nil
}

// SynthesizeLabels derives a binary churn label from logins, tickets and
// activity. The result always holds both classes for a nonempty table.
func SynthesizeLabels(t *table.Table, m schema.Mapping, opt LabelOptions, rng *rand.Rand) ([]int, error) {
	logins, err := requiredFeature(t, m, schema.RoleLogins)
	if err != nil {
		return nil, err
	}
	tickets, err := requiredFeature(t, m, schema.RoleTickets)
	if err != nil {
		return nil, err
	}
	activity, err := requiredFeature(t, m, schema.RoleActivityDays)
	if err != nil {
		return nil, err
	}
	n := t.Len()
	if n == 0 {
		return nil, ErrEmptyTable
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(DefaultSeed))
	}

	lz, tz, az := zScores(logins.Num), zScores(tickets.Num), zScores(activity.Num)
	labels := make([]int, n)
	ones := 0
	for i := 0; i < n; i++ {
		score := opt.LoginsWeight*lz[i] + opt.TicketsWeight*tz[i] + opt.ActivityWeight*az[i]
		p := 1 / (1 + math.Exp(-score))
		if p+rng.NormFloat64()*opt.NoiseStd > opt.Threshold {
			labels[i] = 1
			ones++
		}
	}
	switch ones {
	case 0:
		for _, i := range rankByValue(tickets.Num, true)[:quartile(n)] {
			labels[i] = 1
		}
	case n:
		for _, i := range rankByValue(tickets.Num, false)[:quartile(n)] {
			labels[i] = 0
		}
	}
	return labels, nil
}

// quartile is a quarter of n, at least one row.
func quartile(n int) int {
	k := n / 4
	if k < 1 {
		k = 1
	}
	return k
}

// zScores standardizes non-missing values with the sample standard deviation.
// Missing values, and every value of a constant column, score 0.
func zScores(vals []float64) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	var cnt int
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			cnt++
		}
	}
	if cnt < 2 {
		return out
	}
	mean := sum / float64(cnt)
	var ss float64
	for _, v := range vals {
		if !math.IsNaN(v) {
			ss += (v - mean) * (v - mean)
		}
	}
	std := math.Sqrt(ss / float64(cnt-1))
	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

// rankByValue returns row indices ordered by value, stable on ties, with
// missing values last.
func rankByValue(vals []float64, descending bool) []int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := vals[idx[a]], vals[idx[b]]
		na, nb := math.IsNaN(va), math.IsNaN(vb)
		if na || nb {
			return !na && nb
		}
		if descending {
			return va > vb
		}
		return va < vb
	})
	return idx
}

// ObservedLabels parses an existing churn column into 0/1 labels.
func ObservedLabels(c *table.Column) ([]int, error) {
	out := make([]int, c.Len())
	ones := 0
	for i, v := range c.Text {
		if c.IsMissing(i) {
			return nil, fmt.Errorf("label column %q: row %d is missing", c.Name, i+1)
		}
		if x, ok := table.ParseNumber(v); ok && (x == 0 || x == 1) {
			out[i] = int(x)
			ones += int(x)
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "churned":
			out[i] = 1
			ones++
		case "false", "no", "n", "retained", "active":
			out[i] = 0
		default:
			return nil, fmt.Errorf("label column %q: row %d: cannot parse %q as a label", c.Name, i+1, v)
		}
	}
	if ones == 0 || ones == len(out) {
		return nil, fmt.Errorf("label column %q: %w", c.Name, ErrSingleClass)
	}
	return out, nil
}
