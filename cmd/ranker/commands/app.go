package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wonny/weekly-ranker/internal/audit"
	"github.com/wonny/weekly-ranker/internal/brain"
	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/external/yahoo"
	"github.com/wonny/weekly-ranker/internal/model"
	"github.com/wonny/weekly-ranker/internal/modelconfig"
	"github.com/wonny/weekly-ranker/internal/s0_data"
	"github.com/wonny/weekly-ranker/internal/s0_data/collector"
	"github.com/wonny/weekly-ranker/internal/s0_data/quality"
	"github.com/wonny/weekly-ranker/internal/s1_universe"
	"github.com/wonny/weekly-ranker/internal/s2_features"
	"github.com/wonny/weekly-ranker/internal/s3_training"
	"github.com/wonny/weekly-ranker/internal/selection"
	"github.com/wonny/weekly-ranker/pkg/config"
	"github.com/wonny/weekly-ranker/pkg/database"
	"github.com/wonny/weekly-ranker/pkg/httputil"
	"github.com/wonny/weekly-ranker/pkg/logger"
	"github.com/wonny/weekly-ranker/pkg/metrics"
	"github.com/wonny/weekly-ranker/pkg/redis"
)

// app holds the shared wiring of every command
type app struct {
	cfg        *config.Config
	model      *modelconfig.Config
	configHash string
	log        *logger.Logger
	metrics    *metrics.Recorder

	redis *redis.Client
	db    *database.DB // nil when the archive is disabled
	http  *httputil.Client
}

// newApp loads env + model config and connects the optional backends
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if modelConfigPath != "" {
		cfg.ModelConfigPath = modelConfigPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	mcfg, err := modelconfig.Load(cfg.ModelConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}
	hash, err := modelconfig.Hash(mcfg)
	if err != nil {
		return nil, fmt.Errorf("hash model config: %w", err)
	}

	a := &app{
		cfg:        cfg,
		model:      mcfg,
		configHash: hash,
		log:        log,
		metrics:    metrics.New(),
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.Disabled()
	}

	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		a.db = nil
	case err != nil:
		log.WithError(err).Warn("Database unavailable, results will not be archived")
		a.db = nil
	default:
		if err := a.db.EnsureSchema(ctx); err != nil {
			a.db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	a.http = httputil.New(cfg, log).
		WithSharedLimiter(redis.NewRateLimiter(a.redis, "ranker", redis.DataSourceRateLimit(cfg.DataSource.RequestsPerSec))).
		WithObserver(a.metrics.RecordDataSourceRequest)

	log.WithFields(map[string]interface{}{
		"data_dir":    cfg.DataDir,
		"config_hash": hash[:12],
		"redis":       a.redis.Enabled(),
		"archive":     a.db != nil,
	}).Debug("Application wired")

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.redis.Close()
}

func (a *app) priceStore() *s0_data.PriceStore {
	return s0_data.NewPriceStore(a.cfg.HistoricalDir())
}

func (a *app) tableStore() *s2_features.TableStore {
	return s2_features.NewTableStore(a.cfg.FeaturesDir())
}

func (a *app) artifactStore() *model.Store {
	return model.NewStore(a.cfg.ModelsDir(), "week")
}

func (a *app) dataSource() contracts.DataSource {
	var cache *redis.Cache
	if a.redis.Enabled() {
		cache = redis.NewCache(a.redis, "ranker:chart")
	}
	return yahoo.NewClient(a.http, cache, a.cfg.DataSource.CacheTTL, a.cfg.DataSource.BaseURL, a.log)
}

func (a *app) universeSource() contracts.UniverseSource {
	builder := s1_universe.NewBuilder(s1_universe.Config{Suffix: a.model.Universe.Suffix})
	if a.model.Universe.URL != "" {
		return s1_universe.NewHTMLSource(a.model.Universe.URL, a.http, builder)
	}
	path := a.model.Universe.File
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		path = filepath.Join(a.cfg.DataDir, path)
	}
	return s1_universe.NewCSVSource(path, builder)
}

func (a *app) collector() *collector.Collector {
	return collector.NewCollector(a.dataSource(), a.priceStore(), quality.NewGate(quality.DefaultConfig()), a.log)
}

func (a *app) featureBuilder() *s2_features.Builder {
	return s2_features.NewBuilder(a.priceStore(), a.tableStore(), s2_features.Config{
		TargetWeekScale: a.model.Features.TargetWeekScale,
		MinRows:         a.model.Features.MinRows,
	}, a.log)
}

func (a *app) trainer() *s3_training.Trainer {
	return s3_training.NewTrainer(a.tableStore(), a.artifactStore(), a.model.Training, a.configHash, a.log)
}

func (a *app) predictor() *selection.Predictor {
	p := selection.NewPredictor(a.tableStore(), a.priceStore(), a.artifactStore(), a.cfg.DataDir, a.model.Prediction, a.log)
	if a.db != nil {
		p = p.WithArchive(selection.NewRepository(a.db.Pool))
	}
	return p
}

func (a *app) evaluator() *audit.Evaluator {
	e := audit.NewEvaluator(a.dataSource(), a.cfg.DataDir, a.model.Evaluation, a.log)
	if a.db != nil {
		e = e.WithArchive(audit.NewRepository(a.db.Pool))
	}
	return e
}

func (a *app) orchestrator(sink brain.EventSink) *brain.Orchestrator {
	return brain.NewOrchestrator(brain.Stages{
		Universe:  a.universeSource(),
		Collector: a.collector(),
		Features:  a.featureBuilder(),
		Trainer:   a.trainer(),
		Predictor: a.predictor(),
		Evaluator: a.evaluator(),
	}, a.metrics, sink, a.log)
}

// runOptions builds train-and-predict options from the model config.
// untilNow moves the fetch window end up to the trigger time.
func (a *app) runOptions(fetch bool, topN int, untilNow bool) func(now time.Time) brain.RunOptions {
	return func(now time.Time) brain.RunOptions {
		end := a.model.Fetch.EndDate()
		if untilNow && end.Before(now) {
			end = now
		}
		return brain.RunOptions{
			RunDate: now,
			TopN:    topN,
			Fetch:   fetch,
			Start:   a.model.Fetch.StartDate(),
			End:     end,
			Workers: fetchWorkers,
		}
	}
}
