package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmarkbox/adapters"
	"benchmarkbox/extractor"
	"benchmarkbox/internal/store"
	"benchmarkbox/internal/types"
)

const productPage = `<html><head><title>Lampe Arc | Maison</title>
<script type="application/ld+json">{"@type":"Product","name":"Lampe Arc","offers":{"price":"89.90","priceCurrency":"EUR"}}</script>
</head><body></body></html>`

// fakeBinding serves canned HTML per URL and records notifications
type fakeBinding struct {
	mu            sync.Mutex
	pages         map[string]string
	active        *Tab
	activeErr     error
	delay         time.Duration
	notifications []string
	opened        []string

	inFlight    int32
	maxInFlight int32
}

func (f *fakeBinding) ActiveTab(ctx context.Context) (*Tab, error) {
	return f.active, f.activeErr
}

func (f *fakeBinding) PageContent(ctx context.Context, tab Tab) (types.Page, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	html, ok := f.pages[tab.URL]
	if !ok {
		return nil, fmt.Errorf("no page for %s", tab.URL)
	}
	return adapters.NewDocumentPage(html, tab.URL)
}

func (f *fakeBinding) OpenTab(ctx context.Context, url string) (*Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, url)
	return &Tab{ID: "1", URL: url}, nil
}

func (f *fakeBinding) Notify(ctx context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, message)
	return nil
}

func newTestBridge(binding Binding, pending PendingStore) *Bridge {
	logger := logrus.New()
	config := types.DefaultConfig()
	config.BridgeTimeout = 200 * time.Millisecond
	config.MaxConcurrentRequests = 2
	return New(binding, extractor.NewExtractor(logger), pending, config, logger)
}

func TestIsCapturable(t *testing.T) {
	assert.True(t, IsCapturable("https://shop.example/p"))
	assert.True(t, IsCapturable("http://shop.example/p"))
	assert.False(t, IsCapturable("chrome://extensions"))
	assert.False(t, IsCapturable("about:blank"))
	assert.False(t, IsCapturable(""))
}

func TestBridge_ExtractFromTab(t *testing.T) {
	binding := &fakeBinding{pages: map[string]string{"https://maison.example/lampe": productPage}}
	b := newTestBridge(binding, nil)

	record := b.ExtractFromTab(context.Background(), Tab{URL: "https://maison.example/lampe", Title: "ignored"})
	assert.Equal(t, "Lampe Arc", record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, 89.90, *record.Price)
	assert.Equal(t, "EUR", record.Currency)
	assert.Equal(t, "maison.example", record.SiteID)
}

func TestBridge_ExtractFromTab_Fallback(t *testing.T) {
	binding := &fakeBinding{pages: map[string]string{}}
	b := newTestBridge(binding, nil)

	record := b.ExtractFromTab(context.Background(), Tab{URL: "https://www.shop.example/x", Title: "Chaise Pliante - Shop"})
	assert.Equal(t, types.ProductRecord{
		Name:      "Chaise Pliante",
		Currency:  "EUR",
		SourceURL: "https://www.shop.example/x",
		SiteID:    "shop.example",
	}, record)
}

func TestBridge_ExtractFromTab_Timeout(t *testing.T) {
	binding := &fakeBinding{
		pages: map[string]string{"https://slow.example/p": productPage},
		delay: 2 * time.Second,
	}
	b := newTestBridge(binding, nil)

	started := time.Now()
	record := b.ExtractFromTab(context.Background(), Tab{URL: "https://slow.example/p", Title: "Slow"})
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, "Slow", record.Name)
	assert.Nil(t, record.Price)
}

func TestBridge_ExtractCurrentTab(t *testing.T) {
	binding := &fakeBinding{pages: map[string]string{"https://maison.example/lampe": productPage}}
	b := newTestBridge(binding, nil)
	ctx := context.Background()

	_, err := b.ExtractCurrentTab(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedPage)

	binding.active = &Tab{URL: "chrome://newtab"}
	_, err = b.ExtractCurrentTab(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedPage)

	binding.active = &Tab{URL: "https://maison.example/lampe"}
	record, err := b.ExtractCurrentTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lampe Arc", record.Name)

	binding.activeErr = errors.New("no window")
	_, err = b.ExtractCurrentTab(ctx)
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
}

func TestBridge_SaveCurrentTab(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend(), logrus.New())
	defer s.Close()

	binding := &fakeBinding{pages: map[string]string{"https://maison.example/lampe": productPage}}
	b := newTestBridge(binding, s)

	t.Run("unsupported page notifies", func(t *testing.T) {
		binding.active = &Tab{URL: "about:blank"}
		_, err := b.SaveCurrentTab(ctx)
		assert.ErrorIs(t, err, ErrUnsupportedPage)
		assert.Equal(t, []string{msgUnsupportedPage}, binding.notifications)

		pendingRecord, err := s.TakePendingProduct(ctx, time.Minute)
		require.NoError(t, err)
		assert.Nil(t, pendingRecord)
	})

	t.Run("stores pending record", func(t *testing.T) {
		binding.active = &Tab{URL: "https://maison.example/lampe"}
		record, err := b.SaveCurrentTab(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Lampe Arc", record.Name)

		pendingRecord, err := s.TakePendingProduct(ctx, time.Minute)
		require.NoError(t, err)
		require.NotNil(t, pendingRecord)
		assert.Equal(t, *record, *pendingRecord)
	})

	t.Run("without pending store", func(t *testing.T) {
		_, err := newTestBridge(binding, nil).SaveCurrentTab(ctx)
		assert.Error(t, err)
	})
}

func TestBridge_ExtractURLs(t *testing.T) {
	pages := map[string]string{}
	var urls []string
	for i := 0; i < 6; i++ {
		u := fmt.Sprintf("https://shop.example/p/%d", i)
		pages[u] = fmt.Sprintf(`<html><head><title>Item %d</title></head></html>`, i)
		urls = append(urls, u)
	}
	urls = append(urls, "https://shop.example/missing", "ftp://shop.example/file")

	binding := &fakeBinding{pages: pages, delay: 20 * time.Millisecond}
	b := newTestBridge(binding, nil)

	results := b.ExtractURLs(context.Background(), urls)
	require.Len(t, results, len(urls))
	for i := 0; i < 6; i++ {
		assert.Equal(t, urls[i], results[i].URL)
		require.NotNil(t, results[i].Product)
		assert.Equal(t, fmt.Sprintf("Item %d", i), results[i].Product.Name)
		assert.Empty(t, results[i].Error)
	}

	assert.Nil(t, results[6].Product)
	assert.Contains(t, results[6].Error, ErrBridgeUnavailable.Error())
	assert.Nil(t, results[7].Product)
	assert.Equal(t, ErrUnsupportedPage.Error(), results[7].Error)

	assert.LessOrEqual(t, atomic.LoadInt32(&binding.maxInFlight), int32(2))
}

func TestBridge_Handle(t *testing.T) {
	binding := &fakeBinding{
		pages:  map[string]string{"https://maison.example/lampe": productPage},
		active: &Tab{URL: "https://maison.example/lampe"},
	}
	b := newTestBridge(binding, nil)
	ctx := context.Background()

	t.Run("extract from html", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionExtractProductInfo, HTML: productPage, URL: "https://maison.example/lampe"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Product)
		assert.Equal(t, "Lampe Arc", resp.Product.Name)
	})

	t.Run("extract from url", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionExtractProductInfo, URL: "https://maison.example/lampe"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "Lampe Arc", resp.Product.Name)
	})

	t.Run("extract without input", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionExtractProductInfo})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("current tab", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionExtractCurrentTab})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "maison.example", resp.Product.SiteID)
	})

	t.Run("open tab", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionOpenTab, URL: "https://maison.example/"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"https://maison.example/"}, binding.opened)
	})

	t.Run("notification", func(t *testing.T) {
		resp, err := b.Handle(ctx, Message{Action: ActionShowNotification, Title: "T", Message: "Saved"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Contains(t, binding.notifications, "Saved")
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := b.Handle(ctx, Message{Action: "explode"})
		assert.ErrorIs(t, err, ErrUnknownAction)
		assert.True(t, IsUserError(err))
	})
}

func TestHeadlessBinding_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old-lampe", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/lampe", http.StatusFound)
	})
	mux.HandleFunc("/lampe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, productPage)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	logger := logrus.New()
	config := types.DefaultConfig()
	config.RequestDelay = 0
	config.MaxRetries = 1
	config.Timeout = 5 * time.Second
	loader := adapters.NewLoader(config, logger)
	defer loader.Close()

	binding := NewHeadlessBinding(loader, logger)
	ctx := context.Background()
	_, err := binding.OpenTab(ctx, server.URL+"/old-lampe")
	require.NoError(t, err)

	b := New(binding, extractor.NewExtractor(logger), nil, config, logger)
	record, err := b.ExtractCurrentTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/lampe", record.SourceURL)

	tabs := binding.Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, server.URL+"/lampe", tabs[0].URL)
	assert.Equal(t, "Lampe Arc | Maison", tabs[0].Title)
}

func TestHeadlessBinding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	logger := logrus.New()
	config := types.DefaultConfig()
	config.RequestDelay = 0
	config.MaxRetries = 1
	config.Timeout = 5 * time.Second
	loader := adapters.NewLoader(config, logger)
	defer loader.Close()

	binding := NewHeadlessBinding(loader, logger)
	ctx := context.Background()

	tab, err := binding.ActiveTab(ctx)
	require.NoError(t, err)
	assert.Nil(t, tab)

	opened, err := binding.OpenTab(ctx, server.URL+"/lampe")
	require.NoError(t, err)

	b := New(binding, extractor.NewExtractor(logger), nil, config, logger)
	record, err := b.ExtractCurrentTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lampe Arc", record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, 89.90, *record.Price)

	tabs := binding.Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, opened.ID, tabs[0].ID)
	assert.Equal(t, "Lampe Arc | Maison", tabs[0].Title)

	assert.NoError(t, binding.Notify(ctx, "BenchmarkBox", "hello"))
}
