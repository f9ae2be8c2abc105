// Package adapters turns remote or local HTML into pages the extractor can read.
package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"benchmarkbox/internal/types"
	"benchmarkbox/utils"
)

// Loader fetches product pages over plain HTTP or through a headless browser
type Loader struct {
	config        *types.Config        // Configuration settings (timeouts, browser settings, etc.)
	logger        types.Logger         // Structured logging interface
	httpClient    *utils.HTTPClient    // HTTP client for static pages
	browserClient *utils.BrowserClient // Headless browser client for script-rendered pages
}

// NewLoader creates a loader with initialized HTTP and browser clients
func NewLoader(config *types.Config, logger types.Logger) *Loader {
	return &Loader{
		config:        config,
		logger:        logger,
		httpClient:    utils.NewHTTPClient(config, logger),
		browserClient: utils.NewBrowserClient(config, logger),
	}
}

// GetPageContent retrieves the HTML content of a page
func (l *Loader) GetPageContent(ctx context.Context, pageURL string) (string, error) {
	html, _, err := l.fetch(ctx, pageURL)
	return html, err
}

// fetch retrieves the page markup using either the HTTP client or the headless
// browser, as chosen by UseHeadlessBrowser, and the address the page ended up at.
func (l *Loader) fetch(ctx context.Context, pageURL string) (html, finalURL string, err error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", "", err
	}

	// Shops that render prices client-side need a real browser
	if l.config.UseHeadlessBrowser {
		snapshot, err := l.browserClient.Snapshot(ctx, pageURL)
		if err != nil {
			return "", "", err
		}
		return snapshot.HTML, firstNonEmpty(snapshot.URL, pageURL), nil
	}

	result, err := l.httpClient.Fetch(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	return string(result.Body), firstNonEmpty(result.URL, pageURL), nil
}

// Load fetches pageURL and parses it into a page. The page is addressed by
// its final URL when the shop redirected.
func (l *Loader) Load(ctx context.Context, pageURL string) (*DocumentPage, error) {
	html, finalURL, err := l.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", pageURL, err)
	}

	if finalURL != pageURL {
		l.logger.Debugf("Loaded %s via redirect to %s (%d bytes)", pageURL, finalURL, len(html))
	} else {
		l.logger.Debugf("Loaded %s (%d bytes)", pageURL, len(html))
	}
	return NewDocumentPage(html, finalURL)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Config returns the loader configuration
func (l *Loader) Config() *types.Config {
	return l.config
}

// Close cleans up resources
func (l *Loader) Close() {
	if l.httpClient != nil {
		l.httpClient.Close()
	}
}

// ValidateURL accepts only absolute http and https addresses
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

// UniqueURLs trims the given URLs and drops blanks and duplicates, keeping order
func UniqueURLs(urls []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		unique = append(unique, u)
	}

	return unique
}
