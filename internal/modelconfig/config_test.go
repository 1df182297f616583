package modelconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2.0, cfg.Features.TargetWeekScale)
	assert.Equal(t, 100, cfg.Features.MinRows)
	assert.Equal(t, 0.2, cfg.Training.TestFraction)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 600, cfg.Training.NEstimators)
	assert.Equal(t, 0.03, cfg.Training.LearningRate)
	assert.Equal(t, 10, cfg.Training.MaxDepth)
	assert.Equal(t, 0.8, cfg.Training.Subsample)
	assert.Equal(t, 0.8, cfg.Training.ColsampleByTree)
	assert.Equal(t, 1.0, cfg.Training.WeightMin)
	assert.Equal(t, 10.0, cfg.Training.WeightMax)
	assert.Equal(t, 30, cfg.Prediction.MinRows)
	assert.Equal(t, 1.8, cfg.Prediction.Stretch)
	assert.Equal(t, 2.0, cfg.Prediction.PriceDivisor)
	assert.Equal(t, ".NS", cfg.Universe.Suffix)
	assert.Equal(t, 7, cfg.Evaluation.HorizonDays)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_OverridesNamedConstants(t *testing.T) {
	cfg, err := Parse([]byte(`
features:
  target_week_scale: 1.0
prediction:
  stretch: 2.5
  top_n: 20
`))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Features.TargetWeekScale)
	assert.Equal(t, 2.5, cfg.Prediction.Stretch)
	assert.Equal(t, 20, cfg.Prediction.TopN)
	// untouched keys keep defaults
	assert.Equal(t, 2.0, cfg.Prediction.PriceDivisor)
	assert.Equal(t, 600, cfg.Training.NEstimators)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown key", "training:\n  n_trees: 5\n", ""},
		{"zero stretch", "prediction:\n  stretch: 0\n", "prediction.stretch"},
		{"fraction out of range", "training:\n  test_fraction: 1.5\n", "training.testfraction"},
		{"weight bounds inverted", "training:\n  weight_min: 5\n  weight_max: 2\n", "training.weightmax"},
		{"bad date", "fetch:\n  start: 01/01/2020\n", "fetch.start"},
		{"start after end", "fetch:\n  start: \"2026-01-01\"\n  end: \"2025-01-01\"\n", "fetch"},
		{"suffix without dot", "universe:\n  suffix: NS\n", "universe.suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			if tt.field != "" {
				var verr ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}

func TestHash(t *testing.T) {
	a := Default()
	b := Default()

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)

	b.Prediction.Stretch = 1.9
	hb, _ = Hash(b)
	assert.NotEqual(t, ha, hb)
}

func TestLoad_RepositoryConfig(t *testing.T) {
	path := "../../configs/ranker.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.8, cfg.Prediction.Stretch)
	assert.Equal(t, 2.0, cfg.Features.TargetWeekScale)
}
