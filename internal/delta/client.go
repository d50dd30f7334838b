// internal/delta/client.go
// @tag delta, api, rest
package delta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"optionflow/logger"
	"optionflow/models"
)

// Public REST endpoints of Delta Exchange (v2). No authentication is
// required for tickers or chart history.
const (
	ProdBaseURL = "https://cdn.india.deltaex.org"
	TestBaseURL = "https://cdn-ind.testnet.deltaex.org"

	tickersPath      = "/v2/tickers"
	chartHistoryPath = "/v2/chart/history"
)

// Client is a thin wrapper over the Delta Exchange public API. Every
// request is a single attempt; failures are returned to the caller and
// never retried here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Log
}

// envelope is the standard Delta response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// NewClient builds a client for the given base URL. A non-positive
// requestsPerSecond disables client-side rate limiting.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = ProdBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        logger.GetLogger(),
	}
}

// GetOptionChain fetches all option tickers (calls and puts, every
// expiry) for one underlying asset.
func (c *Client) GetOptionChain(ctx context.Context, asset string) ([]models.RawTicker, error) {
	params := url.Values{}
	params.Set("contract_types", "call_options,put_options")
	params.Set("underlying_asset_symbols", asset)

	result, err := c.get(ctx, tickersPath, params)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, nil
	}
	var tickers []models.RawTicker
	if err := json.Unmarshal(result, &tickers); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	return tickers, nil
}

// GetCandles fetches mark-price OHLC history for one instrument.
// Resolution is in minutes, from/to are Unix seconds. An error status
// embedded in an otherwise successful payload is surfaced as an error.
func (c *Client) GetCandles(ctx context.Context, symbol string, resolutionMin int, fromSec, toSec int64) (*models.ChartData, error) {
	markSymbol := symbol
	if !strings.HasPrefix(markSymbol, "MARK:") {
		markSymbol = "MARK:" + markSymbol
	}

	params := url.Values{}
	params.Set("symbol", markSymbol)
	params.Set("resolution", strconv.Itoa(resolutionMin))
	params.Set("from", strconv.FormatInt(fromSec, 10))
	params.Set("to", strconv.FormatInt(toSec, 10))
	params.Set("cache_ttl", "10m")

	result, err := c.get(ctx, chartHistoryPath, params)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("empty chart payload for %s", markSymbol)
	}
	var chart models.ChartData
	if err := json.Unmarshal(result, &chart); err != nil {
		return nil, fmt.Errorf("decode chart history: %w", err)
	}
	if chart.Status != "" && chart.Status != "ok" {
		return nil, fmt.Errorf("chart status %q for %s", chart.Status, markSymbol)
	}
	return &chart, nil
}

// get performs one GET request and unwraps the response envelope.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "optionflow/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.WithComponent("delta_client").WithFields(logger.Fields{
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
	}).Debug("request complete")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, path)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if !env.Success {
		detail := strings.TrimSpace(string(env.Error))
		if detail == "" || detail == "null" {
			detail = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("api error: %s", detail)
	}
	return env.Result, nil
}
