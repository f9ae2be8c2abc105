// Package bridge connects the extractor to browser tabs: it dispatches popup
// actions, pulls page content through a platform Binding and degrades to a
// title-only record when a page cannot be read.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"benchmarkbox/extractor"
	"benchmarkbox/internal/types"
)

var (
	// ErrUnsupportedPage is returned for tabs that are not ordinary web pages
	ErrUnsupportedPage = errors.New("page cannot be captured")

	// ErrUnknownAction is returned for messages with an unrecognized action
	ErrUnknownAction = errors.New("unknown action")

	// ErrBridgeUnavailable is returned when the binding cannot reach the page
	ErrBridgeUnavailable = errors.New("page bridge unavailable")
)

// Tab is a browser tab as seen by the binding
type Tab struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Binding is the platform side of the bridge: whatever owns the tabs
type Binding interface {
	// ActiveTab returns the tab the user is looking at, or nil if there is none
	ActiveTab(ctx context.Context) (*Tab, error)

	// PageContent returns the loaded content of tab
	PageContent(ctx context.Context, tab Tab) (types.Page, error)

	// OpenTab opens url in a new tab
	OpenTab(ctx context.Context, url string) (*Tab, error)

	// Notify shows a notification to the user
	Notify(ctx context.Context, title, message string) error
}

// PendingStore receives records captured by the save shortcut
type PendingStore interface {
	SetPendingProduct(ctx context.Context, record types.ProductRecord) error
}

// Notification texts shown by the save shortcut
const (
	notificationTitle    = "BenchmarkBox"
	msgUnsupportedPage   = "Cette page ne peut pas être sauvegardée."
	msgExtractionFailed  = "Impossible d'extraire les informations."
	msgUnexpectedFailure = "Une erreur est survenue."
)

// Bridge runs extractions against tabs provided by a Binding
type Bridge struct {
	binding   Binding
	extractor *extractor.Extractor
	pending   PendingStore
	config    *types.Config
	logger    types.Logger
}

// New creates a bridge. pending may be nil when the save shortcut is not used.
func New(binding Binding, ext *extractor.Extractor, pending PendingStore, config *types.Config, logger types.Logger) *Bridge {
	return &Bridge{
		binding:   binding,
		extractor: ext,
		pending:   pending,
		config:    config,
		logger:    logger,
	}
}

// IsCapturable reports whether a tab address is an ordinary web page
func IsCapturable(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// FallbackRecord builds the minimal record used when a page cannot be read
func FallbackRecord(tab Tab) types.ProductRecord {
	return types.ProductRecord{
		Name:      extractor.TitleName(tab.Title),
		Currency:  types.DefaultCurrency,
		SourceURL: tab.URL,
		SiteID:    extractor.SiteID(tab.URL),
	}
}

// loadPage asks the binding for tab's content, giving up after BridgeTimeout
// even if the binding ignores cancellation.
func (b *Bridge) loadPage(ctx context.Context, tab Tab) (types.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BridgeTimeout)
	defer cancel()

	type result struct {
		page types.Page
		err  error
	}
	done := make(chan result, 1)
	go func() {
		page, err := b.binding.PageContent(ctx, tab)
		done <- result{page: page, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBridgeUnavailable, r.err)
		}
		if r.page == nil {
			return nil, fmt.Errorf("%w: no content for %s", ErrBridgeUnavailable, tab.URL)
		}
		return r.page, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrBridgeUnavailable, ctx.Err())
	}
}

// ExtractFromTab extracts the product shown in tab. When the page cannot be
// read it returns the fallback record built from the tab's address and title.
func (b *Bridge) ExtractFromTab(ctx context.Context, tab Tab) types.ProductRecord {
	started := time.Now()

	page, err := b.loadPage(ctx, tab)
	if err != nil {
		b.logger.Warnf("Falling back to tab title for %s: %v", tab.URL, err)
		return FallbackRecord(tab)
	}

	record := b.extractor.ExtractProductInfo(page)
	b.logger.Debugf("Extracted %s in %v", tab.URL, time.Since(started))
	return record
}

// ExtractCurrentTab extracts the product shown in the active tab
func (b *Bridge) ExtractCurrentTab(ctx context.Context) (types.ProductRecord, error) {
	tab, err := b.binding.ActiveTab(ctx)
	if err != nil {
		return types.ProductRecord{}, fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	if tab == nil || !IsCapturable(tab.URL) {
		return types.ProductRecord{}, ErrUnsupportedPage
	}

	return b.ExtractFromTab(ctx, *tab), nil
}

// SaveCurrentTab handles the save shortcut: it captures the active tab and
// leaves the record for the popup to pick up. Failures are reported to the
// user through a notification as well as returned.
func (b *Bridge) SaveCurrentTab(ctx context.Context) (*types.ProductRecord, error) {
	if b.pending == nil {
		return nil, errors.New("no pending store configured")
	}

	record, err := b.ExtractCurrentTab(ctx)
	switch {
	case errors.Is(err, ErrUnsupportedPage):
		b.notify(ctx, msgUnsupportedPage)
		return nil, err
	case err != nil:
		b.notify(ctx, msgExtractionFailed)
		return nil, err
	}

	if err := b.pending.SetPendingProduct(ctx, record); err != nil {
		b.logger.Errorf("Failed to store pending product: %v", err)
		b.notify(ctx, msgUnexpectedFailure)
		return nil, err
	}
	return &record, nil
}

func (b *Bridge) notify(ctx context.Context, message string) {
	if err := b.binding.Notify(ctx, notificationTitle, message); err != nil {
		b.logger.Warnf("Failed to show notification: %v", err)
	}
}

// URLResult is the outcome of extracting a single address
type URLResult struct {
	URL     string               `json:"url" yaml:"url"`
	Product *types.ProductRecord `json:"product,omitempty" yaml:"product,omitempty"`
	Error   string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// ExtractURLs extracts several addresses concurrently, at most
// MaxConcurrentRequests at a time. Results keep the order of urls.
func (b *Bridge) ExtractURLs(ctx context.Context, urls []string) []URLResult {
	results := make([]URLResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	limit := b.config.MaxConcurrentRequests
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i].URL = u
			if !IsCapturable(u) {
				results[i].Error = ErrUnsupportedPage.Error()
				return nil
			}

			page, err := b.loadPage(ctx, Tab{URL: u})
			if err != nil {
				b.logger.Warnf("Failed to load %s: %v", u, err)
				results[i].Error = err.Error()
				return nil
			}

			record := b.extractor.ExtractProductInfo(page)
			results[i].Product = &record
			return nil
		})
	}

	// workers never return errors; failures are recorded per URL
	_ = g.Wait()
	return results
}
