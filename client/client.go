package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrFetchFailed marks a request that exhausted its retry budget. Callers
// treat it as "skip this item, log it, continue", never as run-fatal.
var ErrFetchFailed = errors.New("fetch failed")

const userAgent = "scotustician/1.0"

// Config holds rate limiting and retry configuration for the client.
type Config struct {
	// RequestsPerSecond is the sustained outbound rate, shared across all
	// workers in the process.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// MaxAttempts is the total attempt budget per URL, including the first.
	MaxAttempts int
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// BackoffBase is the base delay for exponential backoff between attempts.
	BackoffBase time.Duration
	// BackoffCap bounds the backoff delay.
	BackoffCap time.Duration
}

// DefaultConfig returns the Oyez-safe defaults: 1 request/second globally,
// 3 attempts with exponential backoff between 1s and 10s.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1.0,
		BurstSize:         1,
		MaxAttempts:       3,
		Timeout:           30 * time.Second,
		BackoffBase:       1 * time.Second,
		BackoffCap:        10 * time.Second,
	}
}

// Client is a rate-limited HTTP JSON fetcher. The rate gate is the single
// process-wide admission-control point: every worker blocks on it, and the
// budget is consumed even by attempts that fail.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// New creates a client from the given config. Zero-value fields fall back
// to DefaultConfig.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = def.BackoffCap
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
	}
}

// Fetch performs a rate-limited GET with retries and returns the response
// body. Transport errors and non-2xx statuses are retried up to the attempt
// budget; the terminal error wraps ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Printf("Request failed (attempt %d/%d): %s | %v", attempt, c.maxAttempts, url, err)

		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoffBase << (attempt - 1)
		if delay > c.backoffCap {
			delay = c.backoffCap
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrFetchFailed, url, c.maxAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
