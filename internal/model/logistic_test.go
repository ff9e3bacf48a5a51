package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticRegressionSeparatesClasses(t *testing.T) {
	var x [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i), 5})
		if i >= 10 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	m, err := NewLogisticRegression().Fit(x, y)
	require.NoError(t, err)

	p, err := m.Score([][]float64{{0, 5}, {19, 5}, {9.5, 5}})
	require.NoError(t, err)
	assert.Less(t, p[0], 0.2)
	assert.Greater(t, p[1], 0.8)
	assert.InDelta(t, 0.5, p[2], 0.1)
	for _, v := range p {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func TestLogisticRegressionDeterministic(t *testing.T) {
	x := [][]float64{{1, 2}, {2, 1}, {3, 5}, {4, 4}}
	y := []int{0, 0, 1, 1}
	a, err := NewLogisticRegression().Fit(x, y)
	require.NoError(t, err)
	b, err := NewLogisticRegression().Fit(x, y)
	require.NoError(t, err)
	pa, _ := a.Score(x)
	pb, _ := b.Score(x)
	assert.Equal(t, pa, pb)
}

func TestLogisticRegressionErrors(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = lr.Fit([][]float64{{1}, {2, 3}}, []int{0, 1})
	assert.True(t, errors.Is(err, ErrFeatureMismatch))

	_, err = lr.Fit([][]float64{{1}, {2}}, []int{0, 2})
	assert.Error(t, err)

	m, err := lr.Fit([][]float64{{1}, {2}}, []int{0, 1})
	require.NoError(t, err)
	_, err = m.Score([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}
