// Package pipeline joins resolved columns across input files into a feature
// matrix, labels it, scores it and filters high-risk customers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/churnguard-cli/internal/model"
	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// Options configures a pipeline run.
type Options struct {
	Table  table.Options
	Labels LabelOptions
	// LabelColumn names an existing churn column to use instead of synthetic labels.
	LabelColumn string
	// Seed for the label noise; ignored when Rand is set.
	Seed int64
	Rand *rand.Rand
	// RiskThreshold is the RED LIGHT cut-off; 0 means DefaultRiskThreshold.
	RiskThreshold float64
	Scorer        model.Scorer
	Logger        *zap.Logger
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		Table:         table.DefaultOptions(),
		Labels:        DefaultLabelOptions(),
		Seed:          DefaultSeed,
		RiskThreshold: DefaultRiskThreshold,
	}
}

// LabelSource tells whether labels were observed or synthesized.
type LabelSource string

const (
	LabelsSynthetic LabelSource = "synthetic"
	LabelsObserved  LabelSource = "observed"
)

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Mapping     schema.Mapping
	Rows        int
	Features    []string
	LabelSource LabelSource
	Positives   int
	Predictions []Prediction
	RedLight    []Prediction
	Warnings    []string
}

// ResolveFiles reads only the header row of each path, resolves roles and
// validates that the required ones are present.
func ResolveFiles(paths []string, mode schema.ResolveMode, opt table.Options, log *zap.Logger) (schema.Mapping, []string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	headers, warnings := table.IndexHeaders(paths, opt)
	for _, w := range warnings {
		log.Warn(w)
	}
	m := schema.Resolve(headers, mode)
	for _, r := range m.Roles() {
		log.Debug("resolved role", zap.Stringer("role", r), zap.String("column", m[r].Column), zap.Int("file_index", m[r].FileIndex))
	}
	if err := schema.Validate(m); err != nil {
		return m, warnings, err
	}
	return m, warnings, nil
}

// Run executes the feature-assembly half of the pipeline for a resolved mapping
// and scores every customer. Once the mapping is valid the returned Result is
// never nil, so warnings collected before a fatal error still reach the caller.
func Run(ctx context.Context, paths []string, m schema.Mapping, opt Options) (*Result, error) {
	if err := schema.Validate(m); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", runID))
	a := NewAssembler(log)
	res := &Result{RunID: runID, Mapping: m}
	defer func() { res.Warnings = a.Warnings }()

	src := NewFileSource(paths, opt.Table)
	base, err := a.Join(src, m)
	if err != nil {
		return res, fmt.Errorf("join: %w", err)
	}
	res.Rows = base.Len()
	log.Info("joined input files", zap.Int("rows", base.Len()), zap.Strings("columns", base.Columns()))
	if err := ctx.Err(); err != nil {
		return res, err
	}

	a.Normalize(base, m)

	labels, source, err := a.labels(src, base, m, opt)
	if err != nil {
		return res, err
	}
	res.LabelSource = source
	for _, y := range labels {
		res.Positives += y
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var present []string
	for _, c := range m.FeatureColumns() {
		if base.Has(c) {
			present = append(present, c)
		}
	}
	mat, err := a.Repair(base, present)
	if err != nil {
		return res, fmt.Errorf("repair: %w", err)
	}
	res.Features = mat.Columns

	scorer := opt.Scorer
	if scorer == nil {
		scorer = model.NewLogisticRegression()
	}
	fitted, err := scorer.Fit(mat.Rows, labels)
	if err != nil {
		return res, fmt.Errorf("fit model: %w", err)
	}
	probs, err := fitted.Score(mat.Rows)
	if err != nil {
		return res, fmt.Errorf("score: %w", err)
	}

	idCol, _ := base.Column(m[schema.RoleID].Column)
	threshold := opt.RiskThreshold
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	preds, err := Classify(idCol.Text, probs, threshold)
	if err != nil {
		return res, err
	}
	res.Predictions = preds
	res.RedLight = RedLightOnly(preds)
	log.Info("scored customers", zap.Int("rows", len(preds)), zap.Int("red_light", len(res.RedLight)))
	return res, nil
}

// labels returns observed labels when a usable label column is configured,
// and synthetic labels otherwise.
func (a *Assembler) labels(src Source, base *table.Table, m schema.Mapping, opt Options) ([]int, LabelSource, error) {
	if opt.LabelColumn != "" {
		y, err := a.observedLabels(src, base, m, opt.LabelColumn)
		if err == nil {
			return y, LabelsObserved, nil
		}
		a.warn(fmt.Sprintf("Label column '%s' unusable, synthesizing labels instead: %v", opt.LabelColumn, err),
			zap.String("label_column", opt.LabelColumn))
	}
	rng := opt.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opt.Seed))
	}
	labelOpt := opt.Labels
	if labelOpt == (LabelOptions{}) {
		labelOpt = DefaultLabelOptions()
	}
	y, err := SynthesizeLabels(base, m, labelOpt, rng)
	if err != nil {
		return nil, "", err
	}
	return y, LabelsSynthetic, nil
}

var errLabelNotFound = errors.New("column not found in any input file")

// observedLabels joins the label column into base, looking it up in the id
// file first and then in every other file. On success base gains the column.
func (a *Assembler) observedLabels(src Source, base *table.Table, m schema.Mapping, name string) ([]int, error) {
	if !base.Has(name) {
		idRef := m[schema.RoleID]
		order := []int{idRef.FileIndex}
		for i := 0; i < src.Len(); i++ {
			if i != idRef.FileIndex {
				order = append(order, i)
			}
		}
		merged := false
		for _, i := range order {
			f, err := src.Load(i)
			if err != nil || !f.Has(name) {
				continue
			}
			next, ok := a.mergeColumn(src, base, idRef.Column, schema.ColumnRef{Column: name, FileIndex: i}, "label")
			if !ok {
				continue
			}
			// label rows must line up with the features; a fan-out join would not
			if next.Len() != base.Len() {
				return nil, fmt.Errorf("label column %q duplicates customer rows", name)
			}
			col, _ := next.Column(name)
			if err := base.Add(col); err != nil {
				return nil, err
			}
			merged = true
			break
		}
		if !merged {
			return nil, errLabelNotFound
		}
	}
	col, _ := base.Column(name)
	return ObservedLabels(col)
}
