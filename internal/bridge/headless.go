package bridge

import (
	"context"
	"strconv"
	"sync"

	"benchmarkbox/adapters"
	"benchmarkbox/internal/types"
)

// HeadlessBinding is a Binding without a browser UI. Tabs are plain URLs
// loaded through a Loader, and notifications go to the log.
type HeadlessBinding struct {
	loader *adapters.Loader
	logger types.Logger

	mu     sync.Mutex
	tabs   []Tab
	active int
	nextID int
}

// NewHeadlessBinding creates a binding with no open tabs
func NewHeadlessBinding(loader *adapters.Loader, logger types.Logger) *HeadlessBinding {
	return &HeadlessBinding{
		loader: loader,
		logger: logger,
		active: -1,
	}
}

// ActiveTab returns the most recently opened tab
func (h *HeadlessBinding) ActiveTab(ctx context.Context) (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active < 0 {
		return nil, nil
	}
	tab := h.tabs[h.active]
	return &tab, nil
}

// PageContent loads the tab's address and remembers where the page ended up
// and its title
func (h *HeadlessBinding) PageContent(ctx context.Context, tab Tab) (types.Page, error) {
	page, err := h.loader.Load(ctx, tab.URL)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	for i := range h.tabs {
		if h.tabs[i].ID == tab.ID && tab.ID != "" {
			h.tabs[i].URL = page.URL()
			h.tabs[i].Title = page.Title()
		}
	}
	h.mu.Unlock()

	return page, nil
}

// OpenTab records url as a new, active tab. Nothing is fetched until
// PageContent is called.
func (h *HeadlessBinding) OpenTab(ctx context.Context, url string) (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	tab := Tab{ID: strconv.Itoa(h.nextID), URL: url}
	h.tabs = append(h.tabs, tab)
	h.active = len(h.tabs) - 1
	return &tab, nil
}

// Tabs returns the open tabs in opening order
func (h *HeadlessBinding) Tabs() []Tab {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]Tab(nil), h.tabs...)
}

// Notify writes the notification to the log
func (h *HeadlessBinding) Notify(ctx context.Context, title, message string) error {
	h.logger.Infof("[%s] %s", title, message)
	return nil
}
