package contracts

import "time"

// EvaluationRow compares one prediction against the realized return.
// LastClose and PredictedPrice are carried over from the prediction table (NaN when unknown).
type EvaluationRow struct {
	Symbol         string  `json:"stock"`
	LastClose      float64 `json:"last_close"`
	Pred1W         float64 `json:"pred_1w"`
	PredictedPrice float64 `json:"predicted_price_1w"`
	Actual1W       float64 `json:"actual_1w"`
	Diff           float64 `json:"diff"` // actual - predicted
}

// AbsDiff returns |Diff|
func (r *EvaluationRow) AbsDiff() float64 {
	if r.Diff < 0 {
		return -r.Diff
	}
	return r.Diff
}

// Evaluation is the accuracy report for one prediction table
// ⭐ SSOT: S5 평가 결과 전달
type Evaluation struct {
	PredictionDate time.Time       `json:"prediction_date"`
	WindowEnd      time.Time       `json:"window_end"`
	Rows           []EvaluationRow `json:"rows"`
	MAE            float64         `json:"mae"`
	Correlation    float64         `json:"correlation"` // NaN when fewer than 2 rows
	MostAccurate   []EvaluationRow `json:"most_accurate"`
	LargestMisses  []EvaluationRow `json:"largest_misses"`
	Report         *RunReport      `json:"report,omitempty"`
}

// IsEmpty reports whether no prediction could be matched with realized prices
func (e *Evaluation) IsEmpty() bool {
	return len(e.Rows) == 0
}
