package yahoo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/pkg/config"
	"github.com/wonny/weekly-ranker/pkg/httputil"
	"github.com/wonny/weekly-ranker/pkg/logger"
	"github.com/wonny/weekly-ranker/pkg/redis"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"INFY.NS","gmtoffset":19800},
"timestamp":[1704166200,1704252600,1704339000],
"indicators":{"quote":[{
 "open":[1500.0,1510.5,null],
 "high":[1520.0,1515.0,1530.0],
 "low":[1495.0,1500.0,1505.0],
 "close":[1510.0,1505.25,1525.0],
 "volume":[100000,null,120000]}]}}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{DataSource: config.DataSourceConfig{RequestsPerSec: 1000, Timeout: time.Second}}
	hc := httputil.New(cfg, logger.Nop()).DisableRetry()
	return NewClient(hc, redis.NewCache(redis.Disabled(), "test"), time.Minute, server.URL, logger.Nop())
}

func TestFetchDaily(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v8/finance/chart/INFY.NS"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1704067200", r.URL.Query().Get("period1"))
		_, _ = w.Write([]byte(chartBody))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := client.FetchDaily(context.Background(), "INFY.NS", start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	// 2024-01-02 03:30 UTC is 09:00 IST on the same day
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), bars[2].Date)
	assert.Equal(t, 1505.25, bars[1].Close)
	assert.True(t, math.IsNaN(bars[1].Volume))
	assert.True(t, math.IsNaN(bars[2].Open))
}

func TestFetchDaily_MissingData(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"error payload", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Bad","description":"delisted"}}}`},
		{"no timestamps", http.StatusOK, `{"chart":{"result":[{"meta":{"symbol":"X"},"indicators":{"quote":[{}]}}],"error":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchDaily(context.Background(), "X", time.Now().AddDate(0, 0, -7), time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrMissingInputData), "got %v", err)
		})
	}
}

func TestFetchDaily_ServerErrorIsNotMissingData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchDaily(context.Background(), "X", time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)
	assert.False(t, errors.Is(err, contracts.ErrMissingInputData))
}
