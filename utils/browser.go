package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"benchmarkbox/internal/types"
)

// renderWait gives client-side rendered shops time to inject price markup
const renderWait = 500 * time.Millisecond

// PageSnapshot is the rendered state of a page after scripts have run
type PageSnapshot struct {
	URL  string
	HTML string
}

// BrowserClient provides headless browser functionality
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// Snapshot renders url and captures its final address and markup
func (b *BrowserClient) Snapshot(ctx context.Context, url string) (*PageSnapshot, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	snapshot := &PageSnapshot{}
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(renderWait),
		chromedp.Location(&snapshot.URL),
		chromedp.OuterHTML("html", &snapshot.HTML),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", snapshot.URL, len(snapshot.HTML))
	return snapshot, nil
}
