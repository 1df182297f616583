package audit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Repository archives evaluations in Postgres
// ⭐ SSOT: weekly_evaluations 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new evaluation repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveEvaluation upserts every row of eval keyed by (prediction_date, stock)
func (r *Repository) SaveEvaluation(ctx context.Context, eval *contracts.Evaluation) error {
	query := `
		INSERT INTO weekly_evaluations (
			prediction_date, stock, last_close, pred_1w, predicted_price,
			actual_1w, diff, window_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (prediction_date, stock) DO UPDATE SET
			last_close = EXCLUDED.last_close,
			pred_1w = EXCLUDED.pred_1w,
			predicted_price = EXCLUDED.predicted_price,
			actual_1w = EXCLUDED.actual_1w,
			diff = EXCLUDED.diff,
			window_end = EXCLUDED.window_end,
			created_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, row := range eval.Rows {
		batch.Queue(query,
			eval.PredictionDate, row.Symbol, nullable(row.LastClose), row.Pred1W,
			nullable(row.PredictedPrice), row.Actual1W, row.Diff, eval.WindowEnd,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range eval.Rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert evaluation row: %w", err)
		}
	}
	return nil
}

// GetEvaluation returns the stored rows for predictionDate, largest misses last
func (r *Repository) GetEvaluation(ctx context.Context, predictionDate time.Time) ([]contracts.EvaluationRow, error) {
	query := `
		SELECT stock, last_close, pred_1w, predicted_price, actual_1w, diff
		FROM weekly_evaluations
		WHERE prediction_date = $1
		ORDER BY ABS(diff) ASC, stock ASC
	`

	rows, err := r.pool.Query(ctx, query, predictionDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation: %w", err)
	}
	defer rows.Close()

	var out []contracts.EvaluationRow
	for rows.Next() {
		var row contracts.EvaluationRow
		var lastClose, price *float64
		if err := rows.Scan(&row.Symbol, &lastClose, &row.Pred1W, &price, &row.Actual1W, &row.Diff); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.LastClose = orNaN(lastClose)
		row.PredictedPrice = orNaN(price)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// nullable maps unknown prices to NULL
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
