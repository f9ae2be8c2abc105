// Package pricing turns free-form price text into amounts and formats them back.
package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/currency"

	"benchmarkbox/internal/types"
)

// ws also matches the no-break spaces shops put between thousand groups
const ws = `[\s\x{00A0}\x{202F}]`

// amount is a thousands-grouped number with an optional two-digit decimal part
const amount = `\d{1,3}(?:[\s\x{00A0}\x{202F}.,]\d{3})*`

// pricePatterns are tried in order; the first one yielding a positive amount wins
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(` + amount + `(?:[.,]\d{2}))` + ws + `*€`),
	regexp.MustCompile(`€` + ws + `*(` + amount + `(?:[.,]\d{2})?)`),
	regexp.MustCompile(`(?i)(` + amount + `(?:[.,]\d{2})?)` + ws + `*EUR`),
	regexp.MustCompile(`(\d+(?:[.,]\d{2})?)`),
}

var (
	nonPriceChars  = regexp.MustCompile(`[^\d,.\-]`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ParsePriceFromText finds a price inside a text fragment such as "1 234,56 €",
// "€1,234.56" or "29.99 EUR". It returns 0 when no positive amount is found.
func ParsePriceFromText(text string) float64 {
	if text == "" {
		return 0
	}

	for _, pattern := range pricePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		// a malformed amount such as "1.234.56" keeps its leading number, 1.234
		price, ok := LeadingFloat(normalizeSeparators(stripSpaces(match[1])))
		if !ok || price <= 0 {
			continue
		}
		return price
	}

	return 0
}

// ParsePrice is the permissive parser used for user-entered prices. Anything
// that is not a digit, separator or minus sign is dropped, and negative input
// is treated as a typo.
func ParsePrice(text string) float64 {
	if text == "" {
		return 0
	}

	cleaned := stripSpaces(nonPriceChars.ReplaceAllString(text, ""))
	if strings.Contains(cleaned, ",") {
		cleaned = normalizeSeparators(cleaned)
	}

	price, ok := LeadingFloat(cleaned)
	if !ok {
		return 0
	}
	return math.Abs(price)
}

// LeadingFloat parses the longest numeric prefix of s, ignoring trailing garbage
func LeadingFloat(s string) (float64, bool) {
	prefix := leadingFloatRe.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeSeparators decides which of ',' and '.' is the decimal point.
// Whichever appears last is the decimal point; the other groups thousands.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// DetectCurrency guesses a currency code from symbols or codes in text
func DetectCurrency(text string) string {
	if text == "" {
		return types.DefaultCurrency
	}

	lower := strings.ToLower(text)
	if strings.Contains(text, "$") || strings.Contains(lower, "usd") {
		return "USD"
	}
	if strings.Contains(text, "£") || strings.Contains(lower, "gbp") {
		return "GBP"
	}
	return types.DefaultCurrency
}

// NormalizeCurrency returns the upper-cased ISO 4217 code, or the default
// currency when code is empty or not a known currency.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return types.DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return types.DefaultCurrency
	}
	return unit.String()
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// FormatPrice renders a price the way the popup shows it, e.g. "1234,50€"
func FormatPrice(price float64, code string) string {
	if math.IsNaN(price) {
		return "—"
	}
	if code == "" {
		code = types.DefaultCurrency
	}

	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code
	}
	return strings.Replace(fmt.Sprintf("%.2f", price), ".", ",", 1) + symbol
}
