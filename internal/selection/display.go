package selection

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Display precision
const (
	pricePlaces  = 2
	returnPlaces = 4
)

// Row is a ranked record rounded for tables and JSON responses.
// Unknown prices are null.
type Row struct {
	Rank           int                 `json:"rank"`
	Stock          string              `json:"stock"`
	LastClose      decimal.NullDecimal `json:"last_close"`
	Pred1W         decimal.Decimal     `json:"pred_1w"`
	PredictedPrice decimal.NullDecimal `json:"predicted_price_1w"`
}

// Rows converts records (already in rank order) to display rows
func Rows(records []contracts.PredictionRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{
			Rank:           i + 1,
			Stock:          rec.Symbol,
			LastClose:      nullDecimal(rec.LastClose, pricePlaces),
			Pred1W:         decimalOrZero(rec.Pred1W, returnPlaces),
			PredictedPrice: nullDecimal(rec.PredictedPrice, pricePlaces),
		}
	}
	return rows
}

// ExpectedMove is the predicted price change in percent, or false when unknown
func (r Row) ExpectedMove() (decimal.Decimal, bool) {
	if !r.LastClose.Valid || !r.PredictedPrice.Valid || r.LastClose.Decimal.IsZero() {
		return decimal.Zero, false
	}
	move := r.PredictedPrice.Decimal.Sub(r.LastClose.Decimal).
		Div(r.LastClose.Decimal).
		Mul(decimal.NewFromInt(100))
	return move.Round(2), true
}

func nullDecimal(v float64, places int32) decimal.NullDecimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(places))
}

func decimalOrZero(v float64, places int32) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}
