package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/pkg/config"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	cfg := &config.Config{}

	db, err := New(context.Background(), cfg)
	assert.Nil(t, db)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestNew_BadURL(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{URL: "://not-a-url", MaxConns: 1}}

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDisabled))
}

func TestEnsureSchema_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(ctx))
	// idempotent
	require.NoError(t, db.EnsureSchema(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
