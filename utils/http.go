package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"benchmarkbox/internal/types"
)

// HTTPClient provides HTTP functionality with rate limiting and retries
type HTTPClient struct {
	client  *http.Client
	config  *types.Config
	logger  types.Logger
	limiter *rate.Limiter
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPClient{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(config.RequestDelay), 1),
	}
}

// FetchResult is a successful response body and the address it was served
// from after redirects.
type FetchResult struct {
	URL  string
	Body []byte
}

// Get performs a GET request with rate limiting and retries. The body is
// converted to UTF-8 according to the response's declared or sniffed charset.
func (h *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	result, err := h.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// Fetch is Get that also reports the final address of the response
func (h *HTTPClient) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		result, err := h.fetch(ctx, url, attempt)
		if err == nil {
			h.logger.Debugf("Successfully retrieved %d bytes from %s", len(result.Body), result.URL)
			return result, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (h *HTTPClient) fetch(ctx context.Context, url string, attempt int) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	h.logger.Debugf("Making request to %s (attempt %d/%d)", url, attempt+1, h.config.MaxRetries+1)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warnf("Request failed (attempt %d): %v", attempt+1, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warnf("Unexpected status code %d (attempt %d)", resp.StatusCode, attempt+1)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response charset: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Warnf("Failed to read response body (attempt %d): %v", attempt+1, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{URL: resp.Request.URL.String(), Body: body}, nil
}

// Close cleans up resources
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
