package model

import (
	"fmt"
	"math"
)

// LogisticRegression fits a binary logistic model with full-batch gradient
// descent on standardized features and an L2 penalty on the weights.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	// C is the inverse regularization strength; 0 disables the penalty.
	C float64
}

// NewLogisticRegression returns a regression with the default hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.5, Epochs: 500, C: 1.0}
}

// LogisticModel is a fitted logistic regression.
type LogisticModel struct {
	Weights []float64
	Bias    float64
	mean    []float64
	scale   []float64
}

// Fit trains on features and 0/1 labels.
func (lr *LogisticRegression) Fit(features [][]float64, labels []int) (ScoredModel, error) {
	n := len(features)
	if n == 0 {
		return nil, ErrNoRows
	}
	if len(labels) != n {
		return nil, fmt.Errorf("fit: %d rows but %d labels", n, len(labels))
	}
	d := len(features[0])
	if err := checkShape(features, d); err != nil {
		return nil, err
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("fit: label %d at row %d is not 0 or 1", y, i)
		}
	}

	m := &LogisticModel{Weights: make([]float64, d)}
	m.mean, m.scale = standardize(features)
	x := m.transform(features)

	rate := lr.LearningRate
	if rate <= 0 {
		rate = 0.5
	}
	epochs := lr.Epochs
	if epochs <= 0 {
		epochs = 500
	}
	var lambda float64
	if lr.C > 0 {
		lambda = 1 / (lr.C * float64(n))
	}

	gW := make([]float64, d)
	for ep := 0; ep < epochs; ep++ {
		for j := range gW {
			gW[j] = 0
		}
		gb := 0.0
		for i, row := range x {
			// gradient of binary cross-entropy with respect to the logit
			diff := sigmoid(m.logit(row)) - float64(labels[i])
			for j, v := range row {
				gW[j] += diff * v
			}
			gb += diff
		}
		for j := range m.Weights {
			m.Weights[j] -= rate * (gW[j]/float64(n) + lambda*m.Weights[j])
		}
		m.Bias -= rate * gb / float64(n)
	}
	return m, nil
}

// Score returns churn probabilities for each row.
func (m *LogisticModel) Score(features [][]float64) ([]float64, error) {
	if err := checkShape(features, len(m.Weights)); err != nil {
		return nil, err
	}
	x := m.transform(features)
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = sigmoid(m.logit(row))
	}
	return out, nil
}

func (m *LogisticModel) logit(row []float64) float64 {
	sum := m.Bias
	for j, v := range row {
		sum += m.Weights[j] * v
	}
	return sum
}

func (m *LogisticModel) transform(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - m.mean[j]) / m.scale[j]
		}
		out[i] = r
	}
	return out
}

// standardize returns per-column mean and population std; constant columns
// get a scale of 1 so they contribute nothing after centering.
func standardize(features [][]float64) ([]float64, []float64) {
	d := len(features[0])
	n := float64(len(features))
	mean := make([]float64, d)
	scale := make([]float64, d)
	for _, row := range features {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			scale[j] += (v - mean[j]) * (v - mean[j])
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 || math.IsNaN(scale[j]) {
			scale[j] = 1
		}
	}
	return mean, scale
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
