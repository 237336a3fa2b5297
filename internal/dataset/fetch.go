package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// FetchConfig configures the HTTP side of the default opener.
//
// Zero values are given sensible defaults:
//   - Timeout:        30s
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
//   - RatePerSecond:  4 (shared across all tables of one run)
type FetchConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RatePerSecond  float64

	// Transport overrides the HTTP transport; tests use this to avoid
	// network traffic.
	Transport http.RoundTripper

	// sleep is injectable to make retry tests fast and deterministic.
	sleep func(time.Duration)
}

// NewOpener returns an Opener that reads local paths directly and fetches
// http(s) URLs with retry/backoff and a shared request rate limit. Remote
// bodies are buffered before parsing so a mid-stream disconnect surfaces as a
// fetch error rather than a truncated table.
func NewOpener(cfg FetchConfig) Opener {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	if cfg.sleep == nil {
		cfg.sleep = time.Sleep
	}

	client := &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)

	return func(ctx context.Context, location string) (io.ReadCloser, error) {
		if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
			f, err := os.Open(location)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", location, err)
			}
			return f, nil
		}
		body, err := fetch(ctx, client, limiter, cfg, location)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}

// fetch GETs the URL, retrying transient failures (transport errors and 5xx)
// with exponential backoff. 4xx responses fail immediately.
func fetch(ctx context.Context, client *http.Client, limiter *rate.Limiter, cfg FetchConfig, url string) ([]byte, error) {
	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			cfg.sleep(backoff)
			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request %s: %w", url, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("fetch %s: %w", url, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("fetch %s: %s", url, resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read %s: %w", url, err)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}
