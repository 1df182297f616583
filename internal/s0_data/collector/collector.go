package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data/quality"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Collector fetches daily history for a universe and stores it
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source contracts.DataSource
	store  contracts.PriceWriter
	gate   *quality.Gate
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // concurrent fetches; 1 keeps requests strictly sequential
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.DataSource, store contracts.PriceWriter, gate *quality.Gate, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		store:  store,
		gate:   gate,
		logger: log.WithModule("collector"),
	}
}

type job struct {
	index  int
	symbol string
}

type fetchResult struct {
	index  int
	symbol string
	bars   int
	err    error
}

// Collect fetches [start, end) for every symbol. Failures are recorded
// as skips; items are reported in input order.
func (c *Collector) Collect(ctx context.Context, symbols []string, start, end time.Time, cfg Config) *contracts.RunReport {
	report := contracts.NewRunReport(contracts.StageData)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    start.Format("2006-01-02"),
		"to":      end.Format("2006-01-02"),
		"workers": workers,
	}).Info("Starting price collection")

	jobs := make(chan job, len(symbols))
	resultCh := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				bars, err := c.fetchOne(ctx, j.symbol, start, end)
				resultCh <- fetchResult{index: j.index, symbol: j.symbol, bars: bars, err: err}
			}
		}()
	}

	for i, sym := range symbols {
		jobs <- job{index: i, symbol: sym}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	ordered := make([]fetchResult, len(symbols))
	for r := range resultCh {
		ordered[r.index] = r
	}

	for _, r := range ordered {
		if r.err != nil {
			item := report.Skip(r.symbol, r.err)
			c.logger.WithSymbol(r.symbol).WithField("reason", item.Reason).WithError(r.err).Warn("Skipping symbol")
			continue
		}
		report.OK(r.symbol, r.bars)
	}

	report.Finish()
	c.logger.WithFields(map[string]interface{}{
		"success": report.Processed(),
		"skipped": report.Skipped(),
		"bars":    report.TotalRows(),
	}).Info("Price collection completed")

	return report
}

func (c *Collector) fetchOne(ctx context.Context, symbol string, start, end time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	bars, err := c.source.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, contracts.ErrMissingInputData)
	}

	series := &contracts.PriceSeries{Symbol: symbol, Bars: bars}
	if c.gate != nil {
		snap := c.gate.Check(series)
		if err := snap.Err(); err != nil {
			return 0, fmt.Errorf("%s: %w", symbol, err)
		}
	}

	if err := c.store.Save(series); err != nil {
		return 0, fmt.Errorf("save %s: %w", symbol, err)
	}
	return len(bars), nil
}
