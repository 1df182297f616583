package audit

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

const (
	returnPlaces = 4
	pricePlaces  = 2
)

// RowView is an evaluation row rounded for tables and JSON
type RowView struct {
	Stock          string              `json:"stock"`
	LastClose      decimal.NullDecimal `json:"last_close"`
	Pred1W         decimal.NullDecimal `json:"pred_1w"`
	PredictedPrice decimal.NullDecimal `json:"predicted_price_1w"`
	Actual1W       decimal.NullDecimal `json:"actual_1w"`
	Diff           decimal.NullDecimal `json:"diff"`
}

// View is an Evaluation with NaN replaced by null
type View struct {
	PredictionDate string              `json:"prediction_date,omitempty"`
	WindowEnd      string              `json:"window_end,omitempty"`
	Compared       int                 `json:"compared"`
	MAE            decimal.NullDecimal `json:"mae"`
	Correlation    decimal.NullDecimal `json:"correlation"`
	Rows           []RowView           `json:"rows"`
	MostAccurate   []RowView           `json:"most_accurate"`
	LargestMisses  []RowView           `json:"largest_misses"`
}

// NewView builds the display form of eval
func NewView(eval *contracts.Evaluation) View {
	v := View{
		Compared:      len(eval.Rows),
		MAE:           rounded(eval.MAE),
		Correlation:   rounded(eval.Correlation),
		Rows:          rowViews(eval.Rows),
		MostAccurate:  rowViews(eval.MostAccurate),
		LargestMisses: rowViews(eval.LargestMisses),
	}
	if !eval.PredictionDate.IsZero() {
		v.PredictionDate = eval.PredictionDate.Format("2006-01-02")
	}
	if !eval.WindowEnd.IsZero() {
		v.WindowEnd = eval.WindowEnd.Format("2006-01-02")
	}
	return v
}

func rowViews(rows []contracts.EvaluationRow) []RowView {
	out := make([]RowView, len(rows))
	for i, r := range rows {
				out[i] = RowView{
			Stock:          r.Symbol,
			LastClose:      roundedTo(r.LastClose, pricePlaces),
			Pred1W:         rounded(r.Pred1W),
			PredictedPrice: roundedTo(r.PredictedPrice, pricePlaces),
			Actual1W:       rounded(r.Actual1W),
			Diff:           rounded(r.Diff),
		}
	}
	return out
}

func rounded(v float64) decimal.NullDecimal {
	return roundedTo(v, returnPlaces)
}

func roundedTo(v float64, places int32) decimal.NullDecimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(places))
}
