package contracts

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the outcome of processing one symbol
type ItemStatus string

const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
)

// SkipReason explains why a symbol was skipped
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipMissingInput        SkipReason = "missing_input_data"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipDataQuality         SkipReason = "data_quality"
	SkipProcessingError     SkipReason = "processing_error"
	SkipMissingTarget       SkipReason = "missing_target"
	SkipNonFinite           SkipReason = "non_finite_prediction"
)

// ItemResult records one symbol's outcome within a stage
type ItemResult struct {
	Symbol string     `json:"symbol"`
	Status ItemStatus `json:"status"`
	Reason SkipReason `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"`
	Rows   int        `json:"rows,omitempty"`
}

// RunReport accumulates per-symbol results for one stage run
// ⭐ SSOT: 종목별 성공/스킵 결과는 예외가 아닌 이 리포트로 전달
type RunReport struct {
	RunID      string       `json:"run_id"`
	Stage      Stage        `json:"stage"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      []ItemResult `json:"items"`
}

// NewRunReport starts a report for stage
func NewRunReport(stage Stage) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		Stage:     stage,
		StartedAt: time.Now(),
		Items:     make([]ItemResult, 0),
	}
}

// OK records a successful symbol
func (r *RunReport) OK(symbol string, rows int) {
	r.Items = append(r.Items, ItemResult{Symbol: symbol, Status: ItemOK, Rows: rows})
}

// Skip records a skipped symbol, classifying err
func (r *RunReport) Skip(symbol string, err error) ItemResult {
	item := ItemResult{
		Symbol: symbol,
		Status: ItemSkipped,
		Reason: ClassifySkip(err),
	}
	if err != nil {
		item.Detail = err.Error()
	}
	r.Items = append(r.Items, item)
	return item
}

// SkipWithReason records a skip with an explicit reason
func (r *RunReport) SkipWithReason(symbol string, reason SkipReason, detail string) ItemResult {
	item := ItemResult{Symbol: symbol, Status: ItemSkipped, Reason: reason, Detail: detail}
	r.Items = append(r.Items, item)
	return item
}

// Finish stamps the completion time
func (r *RunReport) Finish() *RunReport {
	r.FinishedAt = time.Now()
	return r
}

// Processed returns the number of successful items
func (r *RunReport) Processed() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == ItemOK {
			n++
		}
	}
	return n
}

// Skipped returns the number of skipped items
func (r *RunReport) Skipped() int {
	return len(r.Items) - r.Processed()
}

// TotalRows sums rows over successful items
func (r *RunReport) TotalRows() int {
	total := 0
	for _, item := range r.Items {
		if item.Status == ItemOK {
			total += item.Rows
		}
	}
	return total
}

// SkipsByReason counts skipped items per reason
func (r *RunReport) SkipsByReason() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, item := range r.Items {
		if item.Status == ItemSkipped {
			counts[item.Reason]++
		}
	}
	return counts
}

// Duration returns the elapsed run time
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
