package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"benchmarkbox/internal/pricing"
	"benchmarkbox/internal/types"
)

// Strategy names, in cascade order
const (
	StructuredDataStrategy  = "structured-data"
	OpenGraphStrategy       = "open-graph"
	MetaTagsStrategy        = "meta-tags"
	MicrodataStrategy       = "microdata"
	CommonSelectorsStrategy = "common-selectors"
	PageTitleStrategy       = "page-title"
)

// Heuristic bounds for the common-selectors scan
const (
	minHeuristicNameLen = 3
	maxHeuristicNameLen = 300
	maxHeuristicPrice   = 1000000
)

// DefaultStrategies returns the extraction cascade ordered from the most to the
// least reliable source of product data.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StructuredDataStrategy, Run: extractStructuredData},
		{Name: OpenGraphStrategy, Run: extractOpenGraph},
		{Name: MetaTagsStrategy, Run: extractMetaTags},
		{Name: MicrodataStrategy, Run: extractMicrodata},
		{Name: CommonSelectorsStrategy, Run: extractCommonSelectors},
		{Name: PageTitleStrategy, Run: extractPageTitle},
	}
}

// extractStructuredData reads the first Product node of the page's JSON-LD blocks
func extractStructuredData(page types.Page) (*types.StrategyResult, error) {
	for _, block := range page.StructuredData() {
		root, err := ParseNode([]byte(block))
		if err != nil {
			// broken blocks are common, move on to the next one
			continue
		}

		products := FindProductNodes(root)
		if len(products) == 0 {
			continue
		}

		product := products[0]
		result := &types.StrategyResult{Currency: types.DefaultCurrency}
		if name, ok := product.Get("name").String(); ok {
			result.Name = name
		}

		offers := product.Get("offers").First()
		if offers != nil {
			for _, key := range []string{"price", "lowPrice", "highPrice"} {
				if price, ok := offers.Get(key).Float(); ok {
					result.Price = types.PriceOf(price)
					break
				}
			}
			if currency, ok := offers.Get("priceCurrency").String(); ok && currency != "" {
				result.Currency = currency
			}
		}
		return result, nil
	}

	return nil, nil
}

// extractOpenGraph reads the og:* and product:* meta properties
func extractOpenGraph(page types.Page) (*types.StrategyResult, error) {
	title, hasTitle := firstAttr(page, "meta[property='og:title'], meta[property='product:title']", "content")
	amount, hasPrice := firstAttr(page, "meta[property='product:price:amount'], meta[property='og:price:amount']", "content")
	if !hasTitle && !hasPrice {
		return nil, nil
	}

	result := &types.StrategyResult{Name: title, Currency: types.DefaultCurrency}
	if price, ok := pricing.LeadingFloat(amount); ok {
		result.Price = types.PriceOf(price)
	}
	if currency, ok := firstAttr(page, "meta[property='product:price:currency'], meta[property='og:price:currency']", "content"); ok && currency != "" {
		result.Currency = currency
	}
	return result, nil
}

var metaPriceChars = regexp.MustCompile(`[^\d.,]`)

// extractMetaTags reads generic name/price meta tags
func extractMetaTags(page types.Page) (*types.StrategyResult, error) {
	title := firstNonEmptyAttr(page, "content", "meta[name='title']", "meta[name='product:name']")
	raw := firstNonEmptyAttr(page, "content", "meta[name='price']", "meta[name='product:price']")
	if title == "" && raw == "" {
		return nil, nil
	}

	result := &types.StrategyResult{Name: title, Currency: types.DefaultCurrency}
	if raw != "" {
		cleaned := strings.Replace(metaPriceChars.ReplaceAllString(raw, ""), ",", ".", 1)
		if price, ok := pricing.LeadingFloat(cleaned); ok {
			result.Price = types.PriceOf(price)
		}
	}
	return result, nil
}

// extractMicrodata reads itemprop values inside the first Product item scope
func extractMicrodata(page types.Page) (*types.StrategyResult, error) {
	scopes := page.Query("[itemtype*='schema.org/Product'], [itemtype*='Product']")
	if len(scopes) == 0 {
		return nil, nil
	}
	scope := scopes[0]

	result := &types.StrategyResult{Currency: types.DefaultCurrency}
	if name := first(scope.Query("[itemprop='name']")); name != nil {
		result.Name = textOrContent(name)
	}
	if priceEl := first(scope.Query("[itemprop='price']")); priceEl != nil {
		if price := pricing.ParsePriceFromText(contentOrText(priceEl)); price > 0 {
			result.Price = types.PriceOf(price)
		}
	}
	if currencyEl := first(scope.Query("[itemprop='priceCurrency']")); currencyEl != nil {
		if currency := contentOrText(currencyEl); currency != "" {
			result.Currency = currency
		}
	}
	return result, nil
}

var nameSelectors = []string{
	"h1[class*='product']",
	"h1[class*='title']",
	"[class*='product-title']",
	"[class*='product-name']",
	"[class*='productTitle']",
	"[class*='productName']",
	"[data-testid*='product-title']",
	"[data-testid*='productTitle']",
	"#productTitle",
	"#title",
	".product-title",
	".product-name",
	"h1",
}

var priceSelectors = []string{
	"[class*='price']:not([class*='old']):not([class*='was']):not([class*='crossed'])",
	"[class*='Price']:not([class*='old']):not([class*='was'])",
	"[data-testid*='price']",
	"[id*='price']",
	".price",
	".product-price",
	".current-price",
	".sale-price",
	".final-price",
}

var hasDigit = regexp.MustCompile(`\d`)

// extractCommonSelectors scans markup conventions used by most shop templates
func extractCommonSelectors(page types.Page) (*types.StrategyResult, error) {
	var name string
	for _, selector := range nameSelectors {
		el := first(page.Query(selector))
		if el == nil {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if n := utf8.RuneCountInString(text); n > minHeuristicNameLen && n < maxHeuristicNameLen {
			name = text
			break
		}
	}

	price := heuristicPrice(page)
	if name == "" && price == nil {
		return nil, nil
	}

	return &types.StrategyResult{Name: name, Price: price, Currency: types.DefaultCurrency}, nil
}

func heuristicPrice(page types.Page) *float64 {
	for _, selector := range priceSelectors {
		for _, el := range page.Query(selector) {
			text := strings.TrimSpace(el.Text())
			if !hasDigit.MatchString(text) {
				continue
			}
			if price := pricing.ParsePriceFromText(text); acceptHeuristicPrice(price) {
				return types.PriceOf(price)
			}
		}
	}
	return nil
}

func acceptHeuristicPrice(price float64) bool {
	return price > 0 && price < maxHeuristicPrice
}

// extractPageTitle keeps the part of the document title before the site name
func extractPageTitle(page types.Page) (*types.StrategyResult, error) {
	return &types.StrategyResult{
		Name:     TitleName(page.Title()),
		Currency: types.DefaultCurrency,
	}, nil
}

var titleSeparator = regexp.MustCompile(`\s*[-|–—:]\s*`)

// TitleName returns the head of a page title, e.g. "Best Deal Ever" for
// "Best Deal Ever | MegaShop".
func TitleName(title string) string {
	return strings.TrimSpace(titleSeparator.Split(title, 2)[0])
}

func first(elements []types.Element) types.Element {
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}

// firstAttr returns the attribute of the first element matching selector.
// found reports whether such an element exists, even when it lacks attr.
func firstAttr(page types.Page, selector, attr string) (value string, found bool) {
	el := first(page.Query(selector))
	if el == nil {
		return "", false
	}
	value, _ = el.Attr(attr)
	return strings.TrimSpace(value), true
}

// firstNonEmptyAttr tries each selector in turn and returns the first non-empty value
func firstNonEmptyAttr(page types.Page, attr string, selectors ...string) string {
	for _, selector := range selectors {
		if value, ok := firstAttr(page, selector, attr); ok && value != "" {
			return value
		}
	}
	return ""
}

func textOrContent(el types.Element) string {
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text
	}
	content, _ := el.Attr("content")
	return strings.TrimSpace(content)
}

func contentOrText(el types.Element) string {
	if content, ok := el.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(el.Text())
}
