package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

func TestFitScaler(t *testing.T) {
	x := [][]float64{
		{1, 10, 5},
		{3, 20, 5},
	}

	s, err := FitScaler(x)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2, 15, 5}, s.Means, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 5, 1}, s.Scales, 1e-12)

	out, err := s.TransformAll(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, -1, 0}, out[0], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 0}, out[1], 1e-12)
}

func TestScaler_TrainStatisticsOnly(t *testing.T) {
	train := [][]float64{{0}, {2}}
	s, err := FitScaler(train)
	require.NoError(t, err)

	// an outlier at transform time does not move the fitted mean
	out, err := s.Transform([]float64{100})
	require.NoError(t, err)
	assert.InDelta(t, 99.0, out[0], 1e-12)
}

func TestScaler_Errors(t *testing.T) {
	_, err := FitScaler(nil)
	assert.True(t, errors.Is(err, contracts.ErrNoTrainableData))

	s := &Scaler{Means: []float64{0, 0}, Scales: []float64{1, 1}}
	_, err = s.Transform([]float64{1})
	assert.True(t, errors.Is(err, contracts.ErrArtifactMismatch))
}
