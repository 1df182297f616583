package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/weekly-ranker/internal/audit"
	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// EvaluationHandler serves the latest accuracy report
type EvaluationHandler struct {
	path    string
	reportN int
	logger  *logger.Logger
}

// NewEvaluationHandler reads the evaluation table at path
func NewEvaluationHandler(path string, reportN int, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		path:    path,
		reportN: reportN,
		logger:  log,
	}
}

// GetLatest returns the latest evaluation with NaN metrics as null
// GET /api/evaluations/latest
func (h *EvaluationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	eval, err := audit.ReadEvaluation(h.path, h.reportN)
	if errors.Is(err, contracts.ErrMissingInputData) {
		respondError(w, http.StatusNotFound, "no evaluation yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read evaluation")
		respondError(w, http.StatusInternalServerError, "failed to read evaluation")
		return
	}
	respondJSON(w, http.StatusOK, audit.NewView(eval))
}
