// Package extractor infers a product record from an already-loaded page by
// running a cascade of independent strategies and merging what they find.
package extractor

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"benchmarkbox/internal/types"
)

// maxNameLen is the length, in characters, names are truncated to
const maxNameLen = 200

// Strategy is a single, independent way of reading product data off a page.
// Run returns nil when the page holds nothing the strategy understands.
type Strategy struct {
	Name string
	Run  func(page types.Page) (*types.StrategyResult, error)
}

// Extractor runs strategies in order and merges their results
type Extractor struct {
	strategies []Strategy
	logger     types.Logger
}

// NewExtractor creates an extractor using the default strategy cascade
func NewExtractor(logger types.Logger) *Extractor {
	return NewExtractorWithStrategies(logger, DefaultStrategies())
}

// NewExtractorWithStrategies creates an extractor running the given strategies in order
func NewExtractorWithStrategies(logger types.Logger, strategies []Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
		logger:     logger,
	}
}

// Strategies returns the names of the configured strategies in cascade order
func (e *Extractor) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name)
	}
	return names
}

// ExtractProductInfo builds the most complete product record obtainable from page.
// Higher-priority strategies win; later strategies only fill fields that are still
// missing, and the cascade stops as soon as both a name and a price are known.
// A failing strategy never aborts extraction.
func (e *Extractor) ExtractProductInfo(page types.Page) types.ProductRecord {
	record := types.ProductRecord{
		Currency:  types.DefaultCurrency,
		SourceURL: page.URL(),
		SiteID:    SiteID(page.URL()),
	}

	for _, strategy := range e.strategies {
		result, err := e.run(strategy, page)
		if err != nil {
			e.logger.Debugf("Strategy %s failed on %s: %v", strategy.Name, record.SourceURL, err)
			continue
		}
		if result == nil {
			e.logger.Debugf("Strategy %s found nothing on %s", strategy.Name, record.SourceURL)
			continue
		}

		merge(&record, result)

		if record.HasName() && record.HasPrice() {
			e.logger.Debugf("Product complete after strategy %s", strategy.Name)
			break
		}
	}

	record.Name = cleanName(record.Name)
	return record
}

// run invokes a strategy, turning a panic into an error
func (e *Extractor) run(strategy Strategy, page types.Page) (result *types.StrategyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warnf("Strategy %s panicked: %v", strategy.Name, r)
			result = nil
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Name, r)
		}
	}()

	return strategy.Run(page)
}

// merge fills the fields of record that are still missing from result
func merge(record *types.ProductRecord, result *types.StrategyResult) {
	if !record.HasName() {
		record.Name = strings.TrimSpace(result.Name)
	}

	if !record.HasPrice() && validPrice(result.Price) {
		record.Price = types.PriceOf(*result.Price)
	}

	// a non-default currency wins over the default, but never over another asserted one
	if result.Currency != "" && result.Currency != types.DefaultCurrency && record.Currency == types.DefaultCurrency {
		record.Currency = result.Currency
	}
}

func validPrice(price *float64) bool {
	return price != nil && *price > 0 && !math.IsInf(*price, 0) && !math.IsNaN(*price)
}

// whitespaceRun includes Unicode spaces such as &nbsp;
var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// cleanName collapses whitespace and caps the name length
func cleanName(name string) string {
	name = strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))

	runes := []rune(name)
	if len(runes) > maxNameLen {
		name = string(runes[:maxNameLen])
	}
	return name
}

// SiteID returns the host of rawURL without a leading "www.", or "unknown"
// when rawURL has no host.
func SiteID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// StrategyReport describes what a single strategy produced for a page
type StrategyReport struct {
	Strategy string                `json:"strategy" yaml:"strategy"`
	Result   *types.StrategyResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
}

// Explain runs every strategy against page, without merging or stopping early,
// and reports each outcome. It is meant for diagnosing pages that extract badly.
func (e *Extractor) Explain(page types.Page) []StrategyReport {
	reports := make([]StrategyReport, 0, len(e.strategies))
	for _, strategy := range e.strategies {
		report := StrategyReport{Strategy: strategy.Name}

		result, err := e.run(strategy, page)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Result = result
		}
		reports = append(reports, report)
	}
	return reports
}
