package s3_training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/model"
	"github.com/wonny/weekly-ranker/internal/modelconfig"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// memTables is an in-memory FeatureReader
type memTables struct {
	tables map[string]*contracts.FeatureTable
	errs   map[string]error
}

func (m *memTables) List() ([]string, error) {
	var out []string
	for s := range m.tables {
		out = append(out, s)
	}
	for s := range m.errs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memTables) Load(symbol string) (*contracts.FeatureTable, error) {
	if err, ok := m.errs[symbol]; ok {
		return nil, err
	}
	return m.tables[symbol], nil
}

func randomTable(symbol string, n int, seed int64) *contracts.FeatureTable {
	rng := rand.New(rand.NewSource(seed))
	table := &contracts.FeatureTable{Symbol: symbol}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		row := contracts.FeatureRow{Date: start.AddDate(0, 0, i)}
		for f := range row.Features {
			row.Features[f] = rng.NormFloat64()
		}
		row.Targets[1] = 0.1*row.Features[0] + 0.01*rng.NormFloat64()
		table.Rows = append(table.Rows, row)
	}
	return table
}

func TestSplit(t *testing.T) {
	train, test, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	train2, test2, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// ceil: 11 rows -> 3 test rows
	_, test, err = Split(11, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 3)

	for _, n := range []int{0, 1} {
		_, _, err = Split(n, 0.2, 42)
		assert.True(t, errors.Is(err, contracts.ErrNoTrainableData), "n=%d", n)
	}
}

func TestSampleWeights(t *testing.T) {
	got := SampleWeights([]float64{0, 0.05, 0.3, -0.45, -2, 5}, 10, 1, 10)
	assert.InDeltaSlice(t, []float64{1, 1, 3, 4.5, 10, 10}, got, 1e-12)
}

func TestLoadDataset(t *testing.T) {
	good := randomTable("GOOD.NS", 10, 1)
	good.Rows[3].Features[5] = math.Inf(1)
	good.Rows[4].Targets[1] = math.NaN()

	noTarget := randomTable("NOTGT.NS", 5, 2)
	noTarget.Columns = append([]string{contracts.DateColumn}, contracts.FeatureNames()...)

	reader := &memTables{
		tables: map[string]*contracts.FeatureTable{"GOOD.NS": good, "NOTGT.NS": noTarget},
		errs:   map[string]error{"BROKEN.NS": fmt.Errorf("BROKEN.NS: %w", contracts.ErrUnrecognizedLayout)},
	}

	report := contracts.NewRunReport(contracts.StageTraining)
	ds, err := LoadDataset(reader, report)
	require.NoError(t, err)

	assert.Equal(t, 8, ds.Len())
	assert.Len(t, ds.X[0], contracts.NumFeatures)
	for _, s := range ds.Symbols {
		assert.Equal(t, "GOOD.NS", s)
	}
	assert.Equal(t, 1, report.Processed())
	assert.Equal(t, map[contracts.SkipReason]int{
		contracts.SkipMissingTarget: 1,
		contracts.SkipDataQuality:   1,
	}, report.SkipsByReason())
}

func TestLoadDataset_Empty(t *testing.T) {
	allInf := randomTable("INF.NS", 3, 3)
	for i := range allInf.Rows {
		allInf.Rows[i].Targets[1] = math.Inf(-1)
	}
	reader := &memTables{tables: map[string]*contracts.FeatureTable{"INF.NS": allInf}}

	_, err := LoadDataset(reader, contracts.NewRunReport(contracts.StageTraining))
	assert.True(t, errors.Is(err, contracts.ErrNoTrainableData))

	_, err = LoadDataset(&memTables{}, contracts.NewRunReport(contracts.StageTraining))
	assert.True(t, errors.Is(err, contracts.ErrNoTrainableData))
}

func smallTraining() modelconfig.Training {
	cfg := modelconfig.Default().Training
	cfg.NEstimators = 20
	cfg.MaxDepth = 3
	cfg.LearningRate = 0.3
	cfg.EvalEvery = 5
	return cfg
}

func TestTrainer_Train(t *testing.T) {
	reader := &memTables{tables: map[string]*contracts.FeatureTable{
		"A.NS": randomTable("A.NS", 120, 4),
		"B.NS": randomTable("B.NS", 130, 5),
	}}
	store := model.NewStore(t.TempDir(), "week")
	trainer := NewTrainer(reader, store, smallTraining(), "hash", logger.Nop())

	result, err := trainer.Train(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 250, result.Rows)
	assert.Equal(t, 50, result.TestRows)
	assert.Equal(t, 200, result.TrainRows)
	assert.Equal(t, 2, result.TablesUsed)
	assert.False(t, math.IsNaN(result.TestRMSE))
	assert.Greater(t, result.TrainRMSE, 0.0)

	art, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, result.PairID, art.Header.PairID)
	assert.Equal(t, "hash", art.Header.ConfigHash)
	assert.Len(t, art.Model.Trees, 20)
	assert.Equal(t, result.TestRMSE, art.Header.Metrics["test_rmse"])
}

func TestTrainer_NoData(t *testing.T) {
	store := model.NewStore(t.TempDir(), "week")
	trainer := NewTrainer(&memTables{}, store, smallTraining(), "", logger.Nop())

	_, err := trainer.Train(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrNoTrainableData))
	assert.True(t, contracts.IsFatal(err))
	assert.False(t, store.Exists())
}
