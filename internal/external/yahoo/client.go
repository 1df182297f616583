package yahoo

import (
	"time"

	"github.com/wonny/weekly-ranker/pkg/httputil"
	"github.com/wonny/weekly-ranker/pkg/logger"
	"github.com/wonny/weekly-ranker/pkg/redis"
)

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: 외부 시세 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	cacheTTL   time.Duration
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new chart API client; cache may be nil
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cacheTTL time.Duration, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     log.WithModule("yahoo"),
		baseURL:    baseURL,
	}
}
