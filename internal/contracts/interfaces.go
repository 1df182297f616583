package contracts

import (
	"context"
	"time"
)

// DataSource returns daily OHLCV history for a symbol (S0)
// ⭐ SSOT: 외부 시세 조회 인터페이스
type DataSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)
}

// PriceReader loads stored price history (S0)
type PriceReader interface {
	Load(symbol string) (*PriceSeries, error)
}

// PriceWriter persists fetched price history (S0)
type PriceWriter interface {
	Save(series *PriceSeries) error
}

// UniverseSource produces the symbol universe (S1)
// ⭐ SSOT: S1 유니버스 로딩 인터페이스
type UniverseSource interface {
	Load(ctx context.Context) (*Universe, error)
}

// FeatureReader loads persisted feature tables (S2 → S3/S4)
type FeatureReader interface {
	List() ([]string, error)
	Load(symbol string) (*FeatureTable, error)
}

// FeatureWriter persists feature tables (S2)
// Delete drops a symbol's table; an absent table is not an error.
type FeatureWriter interface {
	Save(table *FeatureTable) error
	Delete(symbol string) error
}

// PredictionArchive stores ranked lists outside the file system (S4)
type PredictionArchive interface {
	SaveRanking(ctx context.Context, list *RankedList) error
}

// EvaluationArchive stores evaluation results (S5)
type EvaluationArchive interface {
	SaveEvaluation(ctx context.Context, eval *Evaluation) error
}
