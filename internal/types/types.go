package types

import "time"

// DefaultCurrency is assumed whenever a page does not assert a currency
const DefaultCurrency = "EUR"

// ProductRecord is the best-effort product description extracted from a page
type ProductRecord struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Price     *float64 `json:"price" yaml:"price"` // nil when no strategy found a price
	Currency  string   `json:"currency" yaml:"currency"`
	SourceURL string   `json:"url" yaml:"url"`
	SiteID    string   `json:"site" yaml:"site"`
}

// HasName reports whether a name has been found
func (r *ProductRecord) HasName() bool {
	return r.Name != ""
}

// HasPrice reports whether a price has been found
func (r *ProductRecord) HasPrice() bool {
	return r.Price != nil
}

// StrategyResult is the partial record produced by a single extraction strategy.
// Every field is optional; an empty Name or Currency and a nil Price mean "unknown".
type StrategyResult struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Price    *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Currency string   `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// PriceOf returns a pointer to a copy of v, for populating optional prices
func PriceOf(v float64) *float64 {
	return &v
}

// Element is a single node of a page as seen by the extractor
type Element interface {
	// Text returns the element's text content, including descendants
	Text() string

	// Attr returns the value of the named attribute
	Attr(name string) (string, bool)

	// Query returns descendants matching a CSS selector in document order
	Query(selector string) []Element
}

// Page gives read-only access to an already-loaded page
type Page interface {
	// URL returns the address of the page
	URL() string

	// Title returns the document title
	Title() string

	// StructuredData returns the raw text of every JSON-LD block in document order
	StructuredData() []string

	// Query returns elements matching a CSS selector in document order
	Query(selector string) []Element
}

// Config holds the configuration for page loading and tab extraction
type Config struct {
	RequestDelay          time.Duration
	MaxRetries            int
	Timeout               time.Duration
	MaxConcurrentRequests int
	UseHeadlessBrowser    bool
	UserAgent             string
	BridgeTimeout         time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:          1 * time.Second,
		MaxRetries:            3,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 5,
		UseHeadlessBrowser:    false,
		UserAgent:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		BridgeTimeout:         45 * time.Second,
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
