package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

func TestRecorder_RecordReport(t *testing.T) {
	rec := New()

	report := contracts.NewRunReport(contracts.StageFeatures)
	report.OK("AAA", 150)
	report.Skip("BBB", contracts.ErrInsufficientHistory)
	report.Skip("CCC", errors.New("boom"))
	rec.RecordReport(report.Finish())

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.itemsTotal.WithLabelValues("S2", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.itemsTotal.WithLabelValues("S2", "skipped", "insufficient_history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.itemsTotal.WithLabelValues("S2", "skipped", "processing_error")))
}

func TestRecorder_Gauges(t *testing.T) {
	rec := New()

	rec.SetTrainingRMSE(0.04, 0.06)
	rec.SetRankedSymbols(42)
	rec.RecordDataSourceRequest("ok")
	rec.RecordDataSourceRequest("ok")

	assert.Equal(t, 0.06, testutil.ToFloat64(rec.trainingRMSE.WithLabelValues("test")))
	assert.Equal(t, 42.0, testutil.ToFloat64(rec.rankedSymbols))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.sourceRequests.WithLabelValues("ok")))
}

func TestRecorder_NilSafe(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.SetRankedSymbols(1)
		rec.RecordReport(contracts.NewRunReport(contracts.StageRanking))
		rec.RecordDataSourceRequest("error")
	})
}

func TestRecorder_Handler(t *testing.T) {
	rec := New()
	rec.SetRankedSymbols(7)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ranker_ranked_symbols 7")
}
