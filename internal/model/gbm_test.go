package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

func linearData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		y[i] = 0.5*x[i][0] - 0.2*x[i][1] + 0.01*rng.NormFloat64()
	}
	return x, y
}

func smallParams() Params {
	p := DefaultParams()
	p.NEstimators = 60
	p.MaxDepth = 3
	p.LearningRate = 0.2
	return p
}

func TestFit_ReducesError(t *testing.T) {
	x, y := linearData(400, 1)
	ex, ey := linearData(100, 2)

	var rounds []Round
	b, err := Fit(context.Background(), x, y, nil, smallParams(), &EvalSet{X: ex, Y: ey}, func(r Round) {
		rounds = append(rounds, r)
	})
	require.NoError(t, err)

	require.Len(t, rounds, 60)
	assert.Len(t, b.Trees, 60)
	assert.Len(t, b.EvalRMSE, 60)
	assert.Less(t, rounds[59].TrainRMSE, rounds[0].TrainRMSE)
	assert.Less(t, rounds[59].EvalRMSE, rounds[0].EvalRMSE)
	assert.LessOrEqual(t, b.MaxDepth(), 3)

	baseline := RMSE(make([]float64, len(ey)), ey)
	assert.Less(t, rounds[59].EvalRMSE, baseline)
}

func TestFit_Deterministic(t *testing.T) {
	x, y := linearData(200, 3)

	a, err := Fit(context.Background(), x, y, nil, smallParams(), nil, nil)
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, nil, smallParams(), nil, nil)
	require.NoError(t, err)

	pa, err := a.PredictAll(x)
	require.NoError(t, err)
	pb, err := b.PredictAll(x)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Empty(t, a.EvalRMSE)
}

func TestFit_WeightsPullTowardHeavyRows(t *testing.T) {
	x := [][]float64{{0}, {0}}
	y := []float64{0, 1}

	p := smallParams()
	p.MinChildWeight = 0
	b, err := Fit(context.Background(), x, y, []float64{1, 9}, p, nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, b.BaseScore, 1e-12)
	pred, err := b.Predict([]float64{0})
	require.NoError(t, err)
	assert.Greater(t, pred, 0.5)
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(context.Background(), nil, nil, nil, DefaultParams(), nil, nil)
	assert.True(t, errors.Is(err, contracts.ErrNoTrainableData))

	x, y := linearData(10, 4)
	bad := DefaultParams()
	bad.MaxBins = 1
	_, err = Fit(context.Background(), x, y, nil, bad, nil, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fit(ctx, x, y, nil, smallParams(), nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBooster_PredictWidth(t *testing.T) {
	b := &Booster{NumFeatures: 2}
	_, err := b.Predict([]float64{1})
	assert.True(t, errors.Is(err, contracts.ErrArtifactMismatch))
}

func TestPseudoHuber(t *testing.T) {
	g, h := pseudoHuber(0, 1)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, 1.0, h)

	g, _ = pseudoHuber(1e6, 1)
	assert.InDelta(t, 1.0, g, 1e-6)

	g, _ = pseudoHuber(-1e6, 2)
	assert.InDelta(t, -2.0, g, 1e-5)
}

func TestQuantileCuts(t *testing.T) {
	assert.Nil(t, quantileCuts([]float64{3, 3, 3}, 256))
	assert.Equal(t, []float64{1, 2}, quantileCuts([]float64{3, 1, 2, 1}, 256))

	many := make([]float64, 1000)
	for i := range many {
		many[i] = float64(i)
	}
	cuts := quantileCuts(many, 16)
	assert.LessOrEqual(t, len(cuts), 15)
	for i := 1; i < len(cuts); i++ {
		assert.Greater(t, cuts[i], cuts[i-1])
	}
	assert.Less(t, cuts[len(cuts)-1], 999.0)
}

func TestRMSE(t *testing.T) {
	assert.Equal(t, 0.0, RMSE([]float64{1, 2}, []float64{1, 2}))
	assert.InDelta(t, math.Sqrt(2.5), RMSE([]float64{0, 0}, []float64{1, 2}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, nil)))
}
