package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/pkg/httputil"
	"github.com/wonny/weekly-ranker/pkg/redis"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchDaily returns daily bars in [start, end).
// Null quote cells come back as NaN; an empty history is ErrMissingInputData.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]contracts.PriceBar, error) {
	var resp chartResponse

	key := redis.ChartKey(symbol, start, end)
	found := false
	if c.cache != nil {
		var err error
		found, err = c.cache.Get(ctx, key, &resp)
		if err != nil {
			c.logger.WithError(err).Warn("chart cache read failed")
		}
	}

	if !found {
		params := url.Values{}
		params.Set("period1", fmt.Sprintf("%d", start.Unix()))
		params.Set("period2", fmt.Sprintf("%d", end.Unix()))
		params.Set("interval", "1d")
		params.Set("events", "history")
		fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

		if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
			var statusErr *httputil.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrMissingInputData)
			}
			return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
		}

		if c.cache != nil {
			if err := c.cache.Set(ctx, key, resp, c.cacheTTL); err != nil {
				c.logger.WithError(err).Warn("chart cache write failed")
			}
		}
	}

	bars, err := parseChart(&resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
		"cached": found,
	}).Debug("Fetched daily chart")
	return bars, nil
}

func parseChart(resp *chartResponse) ([]contracts.PriceBar, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("%w: %s: %s", contracts.ErrMissingInputData, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, contracts.ErrMissingInputData
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, contracts.ErrMissingInputData
	}

	quote := result.Indicators.Quote[0]
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	bars := make([]contracts.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		local := time.Unix(ts, 0).UTC().Add(offset)
		y, m, d := local.Date()
		bars = append(bars, contracts.PriceBar{
			Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return bars, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
