package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Recorder exposes pipeline metrics on its own registry
// ⭐ SSOT: 메트릭 이름은 여기서만 정의
type Recorder struct {
	registry       *prometheus.Registry
	itemsTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	trainingRMSE   *prometheus.GaugeVec
	rankedSymbols  prometheus.Gauge
	sourceRequests *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		itemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ranker_items_total",
				Help: "Symbols processed per stage by outcome",
			},
			[]string{"stage", "status", "reason"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ranker_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"stage"},
		),
		trainingRMSE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ranker_training_rmse",
				Help: "Final RMSE of the last training run",
			},
			[]string{"split"},
		),
		rankedSymbols: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ranker_ranked_symbols",
				Help: "Number of symbols in the latest ranked list",
			},
		),
		sourceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ranker_datasource_requests_total",
				Help: "Market data requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordReport counts each item of a stage report and its duration
func (r *Recorder) RecordReport(report *contracts.RunReport) {
	if r == nil || report == nil {
		return
	}
	stage := report.Stage.ShortName()
	for _, item := range report.Items {
		r.itemsTotal.WithLabelValues(stage, string(item.Status), string(item.Reason)).Inc()
	}
	r.stageDuration.WithLabelValues(stage).Observe(report.Duration().Seconds())
}

// RecordStageDuration records a stage without per-item results
func (r *Recorder) RecordStageDuration(stage contracts.Stage, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage.ShortName()).Observe(d.Seconds())
}

// SetTrainingRMSE records train and held-out RMSE
func (r *Recorder) SetTrainingRMSE(train, test float64) {
	if r == nil {
		return
	}
	r.trainingRMSE.WithLabelValues("train").Set(train)
	r.trainingRMSE.WithLabelValues("test").Set(test)
}

// SetRankedSymbols records the size of the latest ranked list
func (r *Recorder) SetRankedSymbols(n int) {
	if r == nil {
		return
	}
	r.rankedSymbols.Set(float64(n))
}

// RecordDataSourceRequest counts one request outcome ("ok", "retry", "error")
func (r *Recorder) RecordDataSourceRequest(outcome string) {
	if r == nil {
		return
	}
	r.sourceRequests.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
