package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/selection"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// RankingHandler serves the weekly predictions tables
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	dataDir    string
	defaultTop int
	logger     *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(dataDir string, defaultTop int, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		dataDir:    dataDir,
		defaultTop: defaultTop,
		logger:     log,
	}
}

// RankingResponse is a ranked list trimmed to the requested size
type RankingResponse struct {
	Date  string          `json:"date"`
	Total int             `json:"total"`
	Items []selection.Row `json:"items"`
}

// GetLatest returns the newest ranking
// GET /api/rankings/latest?top=N
func (h *RankingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	top, ok := h.topParam(w, r)
	if !ok {
		return
	}

	path, err := selection.LatestPredictions(h.dataDir)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serve(w, path, top)
}

// GetByDate returns the ranking of one run date
// GET /api/rankings/{date}?top=N
func (h *RankingHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	top, ok := h.topParam(w, r)
	if !ok {
		return
	}
	h.serve(w, selection.PredictionPath(h.dataDir, date), top)
}

// ListDates returns the run dates that have a ranking
// GET /api/rankings
func (h *RankingHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	files, err := selection.ListPredictions(h.dataDir)
	if err != nil {
		h.fail(w, err)
		return
	}
	dates := make([]string, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		dates = append(dates, files[i].Date.Format("2006-01-02"))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

func (h *RankingHandler) serve(w http.ResponseWriter, path string, top int) {
	list, err := selection.ReadPredictions(path)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RankingResponse{
		Date:  list.RunDate.Format("2006-01-02"),
		Total: list.Len(),
		Items: selection.Rows(list.Top(top)),
	})
}

func (h *RankingHandler) topParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return h.defaultTop, true
	}
	top, err := strconv.Atoi(raw)
	if err != nil || top < 1 {
		respondError(w, http.StatusBadRequest, "top must be a positive integer")
		return 0, false
	}
	return top, true
}

func (h *RankingHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, contracts.ErrMissingInputData) {
		respondError(w, http.StatusNotFound, "ranking not found")
		return
	}
	h.logger.WithError(err).Error("Failed to read ranking")
	respondError(w, http.StatusInternalServerError, "failed to read ranking")
}
