package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/api/handlers"
	"github.com/wonny/weekly-ranker/internal/brain"
	"github.com/wonny/weekly-ranker/pkg/config"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// startServer serves a run-only API on a loopback port
func startServer(t *testing.T) (*Server, *blockingRunner, string) {
	t.Helper()
	log := logger.Nop()
	runner := newBlockingRunner()
	runs := handlers.NewRunHandler(context.Background(), runner, func(now time.Time) brain.RunOptions {
		return brain.RunOptions{RunDate: now}
	}, log)

	server := New(&config.Config{Port: "0", Env: "test"}, Routes{Runs: runs, Hub: NewHub(log)}, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(ln) }()

	return server, runner, "http://" + ln.Addr().String()
}

func triggerRun(t *testing.T, base string, runner *blockingRunner) {
	t.Helper()
	resp, err := http.Post(base+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
}

func TestServer_ShutdownWaitsForRuns(t *testing.T) {
	server, runner, base := startServer(t)
	triggerRun(t, base, runner)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(runner.release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.False(t, runner.Running())
}

func TestServer_ShutdownTimesOutOnActiveRun(t *testing.T) {
	server, runner, base := startServer(t)
	triggerRun(t, base, runner)
	defer close(runner.release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := server.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, runner.Running())
}

func TestServer_Handler(t *testing.T) {
	server := New(&config.Config{Port: "0"}, Routes{}, logger.Nop())
	s := &testServer{router: server.Handler()}

	rec, body := s.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
