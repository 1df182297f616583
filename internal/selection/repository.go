package selection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Repository archives rankings in Postgres
// ⭐ SSOT: weekly_predictions 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ranking repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRanking replaces the stored ranking for list.RunDate
func (r *Repository) SaveRanking(ctx context.Context, list *contracts.RankedList) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM weekly_predictions WHERE run_date = $1", list.RunDate); err != nil {
		return fmt.Errorf("failed to delete old ranking: %w", err)
	}

	query := `
		INSERT INTO weekly_predictions (
			run_date, stock, rank, as_of, last_close,
			raw_prediction, pred_1w, predicted_price_1w
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, rec := range list.Records {
		batch.Queue(query,
			list.RunDate, rec.Symbol, i+1, rec.AsOf, nullable(rec.LastClose),
			nullable(rec.RawPrediction), rec.Pred1W, nullable(rec.PredictedPrice),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range list.Records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert ranking row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRanking returns up to limit records for runDate in rank order
func (r *Repository) GetRanking(ctx context.Context, runDate time.Time, limit int) (*contracts.RankedList, error) {
	query := `
		SELECT stock, as_of, last_close, raw_prediction, pred_1w, predicted_price_1w
		FROM weekly_predictions
		WHERE run_date = $1
		ORDER BY rank ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, runDate, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	list := &contracts.RankedList{RunDate: runDate}
	for rows.Next() {
		var (
			rec                   contracts.PredictionRecord
			lastClose, raw, price *float64
		)
		if err := rows.Scan(&rec.Symbol, &rec.AsOf, &lastClose, &raw, &rec.Pred1W, &price); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.LastClose = orNaN(lastClose)
		rec.RawPrediction = orNaN(raw)
		rec.PredictedPrice = orNaN(price)
		list.Records = append(list.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if list.Len() == 0 {
		return nil, fmt.Errorf("no ranking for %s: %w", runDate.Format(dateLayout), contracts.ErrMissingInputData)
	}
	return list, nil
}

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
