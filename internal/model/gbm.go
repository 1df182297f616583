package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Params are the boosting hyperparameters
type Params struct {
	NEstimators     int     `json:"n_estimators"`
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	HuberSlope      float64 `json:"huber_slope"`
	Lambda          float64 `json:"lambda"`
	MinChildWeight  float64 `json:"min_child_weight"`
	MaxBins         int     `json:"max_bins"`
	Seed            int64   `json:"seed"`
}

// DefaultParams returns the production hyperparameters
func DefaultParams() Params {
	return Params{
		NEstimators:     600,
		LearningRate:    0.03,
		MaxDepth:        10,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		HuberSlope:      1.0,
		Lambda:          1.0,
		MinChildWeight:  1.0,
		MaxBins:         256,
		Seed:            42,
	}
}

// EvalSet is a held-out split monitored during fitting
type EvalSet struct {
	X [][]float64
	Y []float64
}

// Round is the progress of one boosting iteration
type Round struct {
	Index     int
	TrainRMSE float64
	EvalRMSE  float64 // NaN without an eval set
}

// Booster is a fitted gradient-boosted tree ensemble with pseudo-Huber loss
// ⭐ SSOT: 주간 수익률 회귀 모델
type Booster struct {
	Params      Params    `json:"params"`
	NumFeatures int       `json:"num_features"`
	BaseScore   float64   `json:"base_score"`
	Trees       []Tree    `json:"trees"`
	EvalRMSE    []float64 `json:"eval_rmse,omitempty"`
}

// Fit trains a booster on x, y with per-sample weights w (nil = 1).
// onRound, if set, is called after every tree.
func Fit(ctx context.Context, x [][]float64, y, w []float64, params Params, eval *EvalSet, onRound func(Round)) (*Booster, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("fit booster on %d rows / %d targets: %w", n, len(y), contracts.ErrNoTrainableData)
	}
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}
	if params.NEstimators <= 0 || params.MaxDepth <= 0 || params.HuberSlope <= 0 {
		return nil, fmt.Errorf("invalid booster params %+v", params)
	}
	if params.MaxBins < 2 || params.MaxBins > math.MaxUint16 {
		return nil, fmt.Errorf("max_bins %d out of range", params.MaxBins)
	}

	width := len(x[0])
	b := &Booster{
		Params:      params,
		NumFeatures: width,
		BaseScore:   weightedMean(y, w),
		Trees:       make([]Tree, 0, params.NEstimators),
	}

	data := newBinnedMatrix(x, params.MaxBins)
	rng := rand.New(rand.NewSource(params.Seed))

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = b.BaseScore
	}
	var evalPred []float64
	if eval != nil && len(eval.X) > 0 {
		evalPred = make([]float64, len(eval.X))
		for i := range evalPred {
			evalPred[i] = b.BaseScore
		}
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	grower := &treeGrower{
		data:           data,
		grad:           grad,
		hess:           hess,
		maxDepth:       params.MaxDepth,
		lambda:         params.Lambda,
		minChildWeight: params.MinChildWeight,
		learningRate:   params.LearningRate,
	}

	for round := 0; round < params.NEstimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range pred {
			g, h := pseudoHuber(pred[i]-y[i], params.HuberSlope)
			grad[i] = g * w[i]
			hess[i] = h * w[i]
		}

		grower.features = sampleColumns(rng, width, params.ColsampleByTree)
		tree := grower.grow(sampleRows(rng, n, params.Subsample))
		b.Trees = append(b.Trees, tree)

		for i, row := range x {
			pred[i] += tree.predict(row)
		}

		r := Round{Index: round + 1, TrainRMSE: RMSE(pred, y), EvalRMSE: math.NaN()}
		if evalPred != nil {
			for i, row := range eval.X {
				evalPred[i] += tree.predict(row)
			}
			r.EvalRMSE = RMSE(evalPred, eval.Y)
			b.EvalRMSE = append(b.EvalRMSE, r.EvalRMSE)
		}
		if onRound != nil {
			onRound(r)
		}
	}
	return b, nil
}

// Predict scores one (already scaled) feature vector
func (b *Booster) Predict(x []float64) (float64, error) {
	if len(x) != b.NumFeatures {
		return 0, fmt.Errorf("model expects %d features, got %d: %w", b.NumFeatures, len(x), contracts.ErrArtifactMismatch)
	}
	out := b.BaseScore
	for i := range b.Trees {
		out += b.Trees[i].predict(x)
	}
	return out, nil
}

// PredictAll scores every row of x
func (b *Booster) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := b.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// MaxDepth returns the deepest tree in the ensemble
func (b *Booster) MaxDepth() int {
	depth := 0
	for i := range b.Trees {
		if d := b.Trees[i].depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// pseudoHuber returns gradient and hessian of δ²(√(1+(r/δ)²)−1) at residual r
func pseudoHuber(r, delta float64) (grad, hess float64) {
	z := r / delta
	s := 1 + z*z
	sq := math.Sqrt(s)
	return r / sq, 1 / (s * sq)
}

// RMSE is the root mean squared error between pred and y
func RMSE(pred, y []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	ss := 0.0
	for i := range y {
		d := pred[i] - y[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(y)))
}

func weightedMean(y, w []float64) float64 {
	var sum, total float64
	for i := range y {
		sum += y[i] * w[i]
		total += w[i]
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// sampleRows draws each row with probability frac; never returns an empty set
func sampleRows(rng *rand.Rand, n int, frac float64) []int {
	if frac >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rows := make([]int, 0, int(float64(n)*frac)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < frac {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.Intn(n))
	}
	return rows
}

// sampleColumns picks max(1, round(frac*width)) distinct columns, ascending
func sampleColumns(rng *rand.Rand, width int, frac float64) []int {
	k := int(math.Round(frac * float64(width)))
	if k < 1 {
		k = 1
	}
	if k > width {
		k = width
	}
	cols := rng.Perm(width)[:k]
	sort.Ints(cols)
	return cols
}
