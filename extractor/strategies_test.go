package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStructuredData(t *testing.T) {
	tests := []struct {
		name     string
		blocks   string
		wantName string
		wantNil  bool
		price    float64 // 0 means absent
		currency string
	}{
		{
			name:     "offers list uses first offer",
			blocks:   `<script type="application/ld+json">{"@type": "Product", "name": "Mug", "offers": [{"price": 12.5, "priceCurrency": "GBP"}, {"price": 99}]}</script>`,
			wantName: "Mug",
			price:    12.5,
			currency: "GBP",
		},
		{
			name:     "low price when price missing",
			blocks:   `<script type="application/ld+json">{"@type": "Product", "name": "Set", "offers": {"@type": "AggregateOffer", "lowPrice": "19.90", "highPrice": "49.90"}}</script>`,
			wantName: "Set",
			price:    19.9,
			currency: "EUR",
		},
		{
			name:     "high price as last resort",
			blocks:   `<script type="application/ld+json">{"@type": "Product", "name": "Bundle", "offers": {"price": "n/a", "highPrice": 30}}</script>`,
			wantName: "Bundle",
			price:    30,
			currency: "EUR",
		},
		{
			name: "broken block is skipped",
			blocks: `<script type="application/ld+json">{"@type": "Product", "name": </script>
				<script type="application/ld+json">{"@graph": [{"@type": "Product", "name": "Second"}]}</script>`,
			wantName: "Second",
			currency: "EUR",
		},
		{
			name:    "no product",
			blocks:  `<script type="application/ld+json">{"@type": "Organization", "name": "Shop"}</script>`,
			wantNil: true,
		},
		{
			name:    "no blocks",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newPage(t, `<html><head>`+tt.blocks+`</head><body></body></html>`)

			result, err := extractStructuredData(page)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantName, result.Name)
			assert.Equal(t, tt.currency, result.Currency)
			if tt.price == 0 {
				assert.Nil(t, result.Price)
			} else {
				require.NotNil(t, result.Price)
				assert.InDelta(t, tt.price, *result.Price, 1e-9)
			}
		})
	}
}

func TestExtractOpenGraph(t *testing.T) {
	page := newPage(t, `<html><head>
		<meta property="og:title" content="Garden Hose 20m">
		<meta property="og:price:amount" content="24.99">
		<meta property="og:price:currency" content="CHF">
	</head></html>`)

	result, err := extractOpenGraph(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Garden Hose 20m", result.Name)
	require.NotNil(t, result.Price)
	assert.Equal(t, 24.99, *result.Price)
	assert.Equal(t, "CHF", result.Currency)
}

func TestExtractOpenGraph_PriceOnly(t *testing.T) {
	page := newPage(t, `<html><head><meta property="product:price:amount" content="7"></head></html>`)

	result, err := extractOpenGraph(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Name)
	assert.Equal(t, 7.0, *result.Price)
	assert.Equal(t, "EUR", result.Currency)
}

func TestExtractOpenGraph_TitleWithoutContent(t *testing.T) {
	page := newPage(t, `<html><head><meta property="og:title"></head></html>`)

	result, err := extractOpenGraph(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Name)
	assert.Nil(t, result.Price)
	assert.Equal(t, "EUR", result.Currency)
}

func TestExtractOpenGraph_Absent(t *testing.T) {
	page := newPage(t, `<html><head><meta property="og:type" content="website"></head></html>`)

	result, err := extractOpenGraph(page)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExtractMetaTags(t *testing.T) {
	page := newPage(t, `<html><head>
		<meta name="product:name" content="Road Bike">
		<meta name="product:price" content="1 299,00 €">
	</head></html>`)

	result, err := extractMetaTags(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Road Bike", result.Name)
	require.NotNil(t, result.Price)
	assert.Equal(t, 1299.0, *result.Price)
	assert.Equal(t, "EUR", result.Currency)
}

func TestExtractMetaTags_TitleWinsOverProductName(t *testing.T) {
	page := newPage(t, `<html><head>
		<meta name="title" content="Generic Title">
		<meta name="product:name" content="Product Name">
	</head></html>`)

	result, err := extractMetaTags(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Generic Title", result.Name)
	assert.Nil(t, result.Price)
}

func TestExtractMetaTags_Absent(t *testing.T) {
	result, err := extractMetaTags(newPage(t, `<html><head></head></html>`))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExtractMicrodata(t *testing.T) {
	page := newPage(t, `<html><body>
		<div itemscope itemtype="http://schema.org/Product">
			<h2 itemprop="name">  Coffee Grinder </h2>
			<div itemprop="offers" itemscope itemtype="http://schema.org/Offer">
				<span itemprop="price" content="59.00">59,00 €</span>
				<meta itemprop="priceCurrency" content="USD">
			</div>
		</div>
	</body></html>`)

	result, err := extractMicrodata(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Coffee Grinder", result.Name)
	require.NotNil(t, result.Price)
	assert.Equal(t, 59.0, *result.Price)
	assert.Equal(t, "USD", result.Currency)
}

func TestExtractMicrodata_TextPriceAndContentName(t *testing.T) {
	page := newPage(t, `<html><body>
		<div itemscope itemtype="https://schema.org/Product">
			<meta itemprop="name" content="Tea Pot">
			<span itemprop="price">1 049,50 €</span>
		</div>
	</body></html>`)

	result, err := extractMicrodata(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Tea Pot", result.Name)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 1049.5, *result.Price, 1e-9)
	assert.Equal(t, "EUR", result.Currency)
}

func TestExtractMicrodata_Absent(t *testing.T) {
	result, err := extractMicrodata(newPage(t, `<html><body><div itemscope itemtype="https://schema.org/Organization"></div></body></html>`))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExtractCommonSelectors_SkipsOldPrices(t *testing.T) {
	page := newPage(t, `<html><body>
		<h1>Hi</h1>
		<div class="productName">Standing Desk</div>
		<span class="price-old">499,00 €</span>
		<span class="price-was">459,00 €</span>
		<span class="price-current">399,00 €</span>
	</body></html>`)

	result, err := extractCommonSelectors(page)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Standing Desk", result.Name)
	require.NotNil(t, result.Price)
	assert.Equal(t, 399.0, *result.Price)
	assert.Equal(t, "EUR", result.Currency)
}

func TestExtractCommonSelectors_NameLengthBounds(t *testing.T) {
	page := newPage(t, `<html><body><h1>Cap</h1></body></html>`)

	result, err := extractCommonSelectors(page)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExtractCommonSelectors_PriceBounds(t *testing.T) {
	tests := []struct {
		text string
		want float64 // 0 means rejected
	}{
		{"1000000", 0},
		{"0", 0},
		{"999999.99", 999999.99},
		{"0.01", 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			page := newPage(t, `<html><body><span class="price">`+tt.text+`</span></body></html>`)

			result, err := extractCommonSelectors(page)
			require.NoError(t, err)

			if tt.want == 0 {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			require.NotNil(t, result.Price)
			assert.Equal(t, tt.want, *result.Price)
		})
	}
}

func TestAcceptHeuristicPrice(t *testing.T) {
	assert.False(t, acceptHeuristicPrice(0))
	assert.False(t, acceptHeuristicPrice(-1))
	assert.False(t, acceptHeuristicPrice(1000000))
	assert.True(t, acceptHeuristicPrice(0.01))
	assert.True(t, acceptHeuristicPrice(999999.99))
}

func TestExtractPageTitle(t *testing.T) {
	result, err := extractPageTitle(stubPage{title: "Best Deal Ever | MegaShop"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Best Deal Ever", result.Name)
	assert.Nil(t, result.Price)
	assert.Equal(t, "EUR", result.Currency)

	result, err = extractPageTitle(stubPage{})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result.Name)
}
