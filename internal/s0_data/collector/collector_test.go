package collector

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data"
	"github.com/wonny/weekly-ranker/internal/s0_data/quality"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

type fakeSource struct {
	data map[string][]contracts.PriceBar
	errs map[string]error
}

func (f *fakeSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]contracts.PriceBar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.data[symbol], nil
}

type memoryStore struct {
	mu    sync.Mutex
	saved map[string]int
}

func (m *memoryStore) Save(series *contracts.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[series.Symbol] = series.Len()
	return nil
}

func bars(n int, close float64) []contracts.PriceBar {
	out := make([]contracts.PriceBar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: close, Volume: 10}
	}
	return out
}

func TestCollector_Collect(t *testing.T) {
	source := &fakeSource{
		data: map[string][]contracts.PriceBar{
			"AAA.NS": bars(5, 10),
			"NAN.NS": bars(5, math.NaN()),
		},
		errs: map[string]error{
			"DEAD.NS":  contracts.ErrMissingInputData,
			"FLAKY.NS": errors.New("connection reset"),
		},
	}
	store := &memoryStore{saved: map[string]int{}}
	for i := range source.data["NAN.NS"] {
		source.data["NAN.NS"][i].Volume = math.NaN()
	}

	c := NewCollector(source, store, quality.NewGate(quality.DefaultConfig()), logger.Nop())

	for _, workers := range []int{1, 3} {
		report := c.Collect(context.Background(),
			[]string{"AAA.NS", "DEAD.NS", "EMPTY.NS", "NAN.NS", "FLAKY.NS"},
			time.Now().AddDate(-1, 0, 0), time.Now(), Config{Workers: workers})

		assert.Equal(t, 1, report.Processed())
		assert.Equal(t, 4, report.Skipped())
		assert.Equal(t, map[contracts.SkipReason]int{
			contracts.SkipMissingInput:    2,
			contracts.SkipDataQuality:     1,
			contracts.SkipProcessingError: 1,
		}, report.SkipsByReason())

		symbols := make([]string, 0, len(report.Items))
		for _, item := range report.Items {
			symbols = append(symbols, item.Symbol)
		}
		assert.Equal(t, []string{"AAA.NS", "DEAD.NS", "EMPTY.NS", "NAN.NS", "FLAKY.NS"}, symbols)
	}

	assert.Equal(t, map[string]int{"AAA.NS": 5}, store.saved)
}

func TestCollector_WritesPriceStore(t *testing.T) {
	store := s0_data.NewPriceStore(t.TempDir())
	source := &fakeSource{data: map[string][]contracts.PriceBar{"AAA.NS": bars(3, 12.5)}}

	report := NewCollector(source, store, nil, logger.Nop()).
		Collect(context.Background(), []string{"AAA.NS"}, time.Now(), time.Now(), Config{})
	require.Equal(t, 1, report.Processed())

	series, err := store.Load("AAA.NS")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 3)
	assert.Equal(t, 12.5, series.Bars[0].Close)
}

// recordingSource remembers call order and peak concurrency
type recordingSource struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []string
}

func (r *recordingSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]contracts.PriceBar, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	r.calls = append(r.calls, symbol)
	r.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
	return bars(3, 10), nil
}

func TestCollector_SequentialByDefault(t *testing.T) {
	symbols := []string{"AAA.NS", "BBB.NS", "CCC.NS", "DDD.NS"}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero value", Config{}},
		{"one worker", Config{Workers: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &recordingSource{}
			store := &memoryStore{saved: map[string]int{}}

			report := NewCollector(source, store, nil, logger.Nop()).
				Collect(context.Background(), symbols, time.Now(), time.Now(), tt.cfg)

			assert.Equal(t, 4, report.Processed())
			assert.Equal(t, 1, source.peak)
			assert.Equal(t, symbols, source.calls)
		})
	}
}
