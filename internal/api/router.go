package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/weekly-ranker/internal/api/handlers"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Routes groups the handlers the router mounts; nil handlers are not mounted
type Routes struct {
	Rankings    *handlers.RankingHandler
	Evaluations *handlers.EvaluationHandler
	Runs        *handlers.RunHandler
	Hub         *Hub
	Metrics     http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods("GET")
	}
	if routes.Hub != nil {
		r.HandleFunc("/ws/runs", routes.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if routes.Rankings != nil {
		api.HandleFunc("/rankings", routes.Rankings.ListDates).Methods("GET")
		api.HandleFunc("/rankings/latest", routes.Rankings.GetLatest).Methods("GET")
		api.HandleFunc("/rankings/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", routes.Rankings.GetByDate).Methods("GET")
	}
	if routes.Evaluations != nil {
		api.HandleFunc("/evaluations/latest", routes.Evaluations.GetLatest).Methods("GET")
	}
	if routes.Runs != nil {
		api.HandleFunc("/runs", routes.Runs.Start).Methods("POST")
		api.HandleFunc("/runs", routes.Runs.Status).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "weekly-ranker-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
