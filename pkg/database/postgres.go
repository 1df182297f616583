package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/weekly-ranker/pkg/config"
)

// ErrDisabled is returned when no DATABASE_URL is configured
var ErrDisabled = errors.New("database archive disabled")

// DB wraps the pgxpool.Pool and provides additional functionality
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
// Returns ErrDisabled when the archive is not configured.
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled() {
		return nil, ErrDisabled
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// schemaStatements create the archive tables.
// 예측/평가 결과 보관용 (파일 출력이 원본, DB는 사본)
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS weekly_predictions (
		run_date           DATE             NOT NULL,
		stock              TEXT             NOT NULL,
		rank               INTEGER          NOT NULL,
		as_of              DATE             NOT NULL,
		last_close         DOUBLE PRECISION,
		raw_prediction     DOUBLE PRECISION,
		pred_1w            DOUBLE PRECISION NOT NULL,
		predicted_price_1w DOUBLE PRECISION,
		created_at         TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_date, stock)
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_evaluations (
		prediction_date DATE             NOT NULL,
		stock           TEXT             NOT NULL,
		last_close      DOUBLE PRECISION,
		pred_1w         DOUBLE PRECISION NOT NULL,
		predicted_price DOUBLE PRECISION,
		actual_1w       DOUBLE PRECISION NOT NULL,
		diff            DOUBLE PRECISION NOT NULL,
		window_end      DATE             NOT NULL,
		created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (prediction_date, stock)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weekly_predictions_run_date ON weekly_predictions (run_date DESC)`,
}

// EnsureSchema creates the archive tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// HealthCheck returns health information about the database
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	stats := db.Pool.Stat()
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.Healthy = true
	return status, nil
}

// HealthStatus represents the health status of the database
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	TotalConns   int32         `json:"total_conns"`
	IdleConns    int32         `json:"idle_conns"`
	Error        string        `json:"error,omitempty"`
}
