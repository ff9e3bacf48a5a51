// Package model holds the binary classifiers used to score churn risk.
package model

import (
	"errors"
	"fmt"
)

// Scorer fits a binary classifier on a dense feature matrix.
type Scorer interface {
	Fit(features [][]float64, labels []int) (ScoredModel, error)
}

// ScoredModel returns p(churn=1) for each feature row.
type ScoredModel interface {
	Score(features [][]float64) ([]float64, error)
}

var (
	ErrNoRows          = errors.New("no rows to fit")
	ErrFeatureMismatch = errors.New("feature count mismatch between model and data")
)

func checkShape(features [][]float64, nFeatures int) error {
	for i, row := range features {
		if len(row) != nFeatures {
			return fmt.Errorf("row %d has %d features, want %d: %w", i, len(row), nFeatures, ErrFeatureMismatch)
		}
	}
	return nil
}
