package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/models"
)

// ErrInvalidPayload signals a backend response that arrived but does not
// match the expected shape (success=false envelope or missing data list).
var ErrInvalidPayload = errors.New("market api: invalid payload")

// UpstreamError carries a non-2xx status from the market-data backend.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("market api: %d", e.Status)
}

// MarketClient talks to the external market-data backend. The constituents
// path runs behind a circuit breaker; the per-symbol change lookup does not,
// since its failures are absorbed by the transform.
type MarketClient struct {
	baseURL string
	hc      *http.Client
	cb      *circuitBreaker
}

type circuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	openedAt  time.Time
	cooldown  time.Duration
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (c *circuitBreaker) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures < c.threshold {
		return true
	}
	if time.Since(c.openedAt) > c.cooldown {
		c.failures = 0
		c.openedAt = time.Time{}
		return true
	}
	return false
}

func (c *circuitBreaker) success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openedAt = time.Time{}
}

func (c *circuitBreaker) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openedAt = time.Now()
	}
}

func NewMarketClient(cfg config.Config) *MarketClient {
	return &MarketClient{
		baseURL: cfg.MarketBaseURL,
		hc: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		cb: newCircuitBreaker(cfg.CircuitFailLimit, cfg.CircuitCooldown),
	}
}

func (c *MarketClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("market health: %s", res.Status)
	}
	return nil
}

// FetchConstituents returns the raw per-symbol records for an index. The
// index code is translated to the backend board code first; unknown codes
// fall back to the baseline board.
func (c *MarketClient) FetchConstituents(ctx context.Context, indexCode string) ([]models.RawSymbolRecord, error) {
	if !c.cb.allow() {
		return nil, &UpstreamError{Status: http.StatusServiceUnavailable, Body: "circuit breaker open"}
	}

	board := models.BoardFor(indexCode)
	url := fmt.Sprintf("%s/api/v1/treemap/%s", c.baseURL, board)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		c.cb.fail()
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		c.cb.fail()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &UpstreamError{Status: res.StatusCode, Body: string(body)}
	}

	var env models.ConstituentsResponse
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		c.cb.fail()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !env.Success || env.Data == nil {
		c.cb.fail()
		if env.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, env.Message)
		}
		return nil, ErrInvalidPayload
	}

	c.cb.success()
	return env.Data, nil
}

// FetchSymbolChange performs the secondary per-symbol lookup used for
// enrichment. Callers treat individual failures as non-fatal.
func (c *MarketClient) FetchSymbolChange(ctx context.Context, symbol string) (models.SymbolChange, error) {
	var out models.SymbolChange
	url := fmt.Sprintf("%s/api/v1/treemap-color/stock-change/%s", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return out, &UpstreamError{Status: res.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}
