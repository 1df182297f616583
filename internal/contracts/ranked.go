package contracts

import "time"

// PredictionRecord is one scored symbol
// ⭐ SSOT: S4 예측 결과 전달
type PredictionRecord struct {
	Symbol         string    `json:"stock"`
	AsOf           time.Time `json:"as_of"`      // date of the scored feature row
	LastClose      float64   `json:"last_close"` // NaN when unknown
	RawPrediction  float64   `json:"raw_prediction"`
	Pred1W         float64   `json:"pred_1w"` // bounded adjusted return
	PredictedPrice float64   `json:"predicted_price_1w"`
}

// HasLastClose reports whether a last close was resolved
func (p *PredictionRecord) HasLastClose() bool {
	return isFinite(p.LastClose)
}

// RankedList is a prediction set sorted by Pred1W descending, stable on ties
type RankedList struct {
	RunDate time.Time          `json:"run_date"`
	Records []PredictionRecord `json:"records"`
}

// Len returns the number of ranked records
func (l *RankedList) Len() int {
	return len(l.Records)
}

// Top returns the first n records (all when n <= 0 or n exceeds the list)
func (l *RankedList) Top(n int) []PredictionRecord {
	if n <= 0 || n >= len(l.Records) {
		return l.Records
	}
	return l.Records[:n]
}

// RankOf returns the 1-based rank of symbol, or 0 when absent
func (l *RankedList) RankOf(symbol string) int {
	for i, rec := range l.Records {
		if rec.Symbol == symbol {
			return i + 1
		}
	}
	return 0
}
