package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/weekly-ranker/internal/brain"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Runner starts train-and-predict runs
type Runner interface {
	TrainAndPredict(ctx context.Context, opts brain.RunOptions) (*brain.RunResult, error)
	Running() bool
}

// RunHandler triggers asynchronous pipeline runs
type RunHandler struct {
	runner  Runner
	options func(now time.Time) brain.RunOptions
	logger  *logger.Logger

	mu     sync.Mutex
	active string // run ID in flight
	last   *RunStatus
	ctx    context.Context
	wg     sync.WaitGroup
}

// RunStatus summarizes a finished run
type RunStatus struct {
	RunID    string `json:"run_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Ranked   int    `json:"ranked"`
	Duration string `json:"duration"`
}

// NewRunHandler creates a run handler; runs are cancelled when ctx ends
func NewRunHandler(ctx context.Context, runner Runner, options func(now time.Time) brain.RunOptions, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner:  runner,
		options: options,
		logger:  log,
		ctx:     ctx,
	}
}

// Start launches a train-and-predict run
// POST /api/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.active != "" || h.runner.Running() {
		h.mu.Unlock()
		respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	opts := h.options(time.Now())
	opts.RunID = brain.GenerateRunID()
	h.active = opts.RunID
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run(opts)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"run_id": opts.RunID,
		"events": "/ws/runs",
	})
}

// Status reports the active run and the last finished one
// GET /api/runs
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active": h.active,
		"last":   h.last,
	})
}

// Wait blocks until runs started by this handler have returned
func (h *RunHandler) Wait() {
	h.wg.Wait()
}

func (h *RunHandler) run(opts brain.RunOptions) {
	defer h.wg.Done()

	result, err := h.runner.TrainAndPredict(h.ctx, opts)

	status := &RunStatus{RunID: opts.RunID, Success: err == nil}
	if err != nil {
		status.Error = err.Error()
		if !errors.Is(err, brain.ErrRunInProgress) {
			h.logger.WithError(err).WithField("run_id", opts.RunID).Error("Triggered run failed")
		}
	}
	if result != nil {
		status.Duration = result.Duration.String()
		if result.Prediction != nil {
			status.Ranked = result.Prediction.Ranked.Len()
		}
	}

	h.mu.Lock()
	h.active = ""
	h.last = status
	h.mu.Unlock()
}
