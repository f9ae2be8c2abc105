package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmarkbox/internal/types"
)

const samplePage = `<html><head>
	<title> Walnut Desk | Atelier </title>
	<script type="application/ld+json">{"@type": "Product"}</script>
	<script type="application/ld+json">{"@type": "Organization"}</script>
	<meta property="og:title" content="Walnut Desk">
</head><body>
	<div class="product"><h1 class="product-title">Walnut Desk</h1><span class="price" data-amount="349">349,00 €</span></div>
	<div class="product"><span class="price">12,00 €</span></div>
</body></html>`

func TestDocumentPage(t *testing.T) {
	page, err := NewDocumentPage(samplePage, "https://atelier.example/desk")
	require.NoError(t, err)

	assert.Equal(t, "https://atelier.example/desk", page.URL())
	assert.Equal(t, "Walnut Desk | Atelier", page.Title())

	blocks := page.StructuredData()
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Product")
	assert.Contains(t, blocks[1], "Organization")

	prices := page.Query(".price")
	require.Len(t, prices, 2)
	assert.Equal(t, "349,00 €", prices[0].Text())
	assert.Equal(t, "12,00 €", prices[1].Text())

	amount, ok := prices[0].Attr("data-amount")
	assert.True(t, ok)
	assert.Equal(t, "349", amount)
	_, ok = prices[1].Attr("data-amount")
	assert.False(t, ok)

	content, ok := page.Query("meta[property='og:title']")[0].Attr("content")
	assert.True(t, ok)
	assert.Equal(t, "Walnut Desk", content)
}

func TestDocumentPage_NestedQuery(t *testing.T) {
	page, err := NewDocumentPage(samplePage, "https://atelier.example/desk")
	require.NoError(t, err)

	products := page.Query(".product")
	require.Len(t, products, 2)
	assert.Len(t, products[0].Query("h1"), 1)
	assert.Empty(t, products[1].Query("h1"))
}

func TestDocumentPage_NoMatches(t *testing.T) {
	page, err := NewDocumentPage(`<p>hello</p>`, "")
	require.NoError(t, err)

	assert.Empty(t, page.Query("table"))
	assert.Empty(t, page.StructuredData())
	assert.Equal(t, "", page.Title())
}

func TestLoader_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	config := types.DefaultConfig()
	config.RequestDelay = 10 * time.Millisecond
	loader := NewLoader(config, logrus.New())
	defer loader.Close()

	page, err := loader.Load(context.Background(), server.URL+"/desk")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/desk", page.URL())
	assert.Equal(t, "Walnut Desk | Atelier", page.Title())
	assert.Equal(t, config, loader.Config())
}

func TestLoader_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p/123", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products/walnut-desk", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/products/walnut-desk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	config := types.DefaultConfig()
	config.RequestDelay = 10 * time.Millisecond
	loader := NewLoader(config, logrus.New())
	defer loader.Close()

	page, err := loader.Load(context.Background(), server.URL+"/p/123")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/products/walnut-desk", page.URL())
	assert.Equal(t, "Walnut Desk | Atelier", page.Title())

	html, err := loader.GetPageContent(context.Background(), server.URL+"/p/123")
	require.NoError(t, err)
	assert.Contains(t, html, "Walnut Desk")
}

func TestLoader_RejectsUnsupportedURL(t *testing.T) {
	loader := NewLoader(types.DefaultConfig(), logrus.New())
	defer loader.Close()

	_, err := loader.Load(context.Background(), "chrome://extensions")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://shop.example/item"))
	assert.NoError(t, ValidateURL("http://shop.example"))
	assert.Error(t, ValidateURL("file:///tmp/page.html"))
	assert.Error(t, ValidateURL("https://"))
	assert.Error(t, ValidateURL("::not a url"))
}

func TestUniqueURLs(t *testing.T) {
	got := UniqueURLs([]string{" https://a.example ", "https://b.example", "", "https://a.example"})

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got)
}
