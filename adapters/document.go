package adapters

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"benchmarkbox/internal/types"
)

// DocumentPage exposes a parsed HTML document through the types.Page interface
type DocumentPage struct {
	url string
	doc *goquery.Document
}

// NewDocumentPage parses html into a page located at pageURL
func NewDocumentPage(html, pageURL string) (*DocumentPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return NewDocumentPageFromDocument(doc, pageURL), nil
}

// NewDocumentPageFromDocument wraps an already parsed goquery document
func NewDocumentPageFromDocument(doc *goquery.Document, pageURL string) *DocumentPage {
	return &DocumentPage{url: pageURL, doc: doc}
}

// URL returns the address of the page
func (p *DocumentPage) URL() string {
	return p.url
}

// Title returns the text of the first <title> element
func (p *DocumentPage) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// StructuredData returns the raw content of every JSON-LD script in document order
func (p *DocumentPage) StructuredData() []string {
	var blocks []string
	p.doc.Find("script[type='application/ld+json']").Each(func(i int, s *goquery.Selection) {
		blocks = append(blocks, s.Text())
	})
	return blocks
}

// Query returns the elements matching selector in document order
func (p *DocumentPage) Query(selector string) []types.Element {
	return wrapSelection(p.doc.Find(selector))
}

// Document returns the underlying goquery document
func (p *DocumentPage) Document() *goquery.Document {
	return p.doc
}

// selectionElement is a single node of a goquery selection
type selectionElement struct {
	sel *goquery.Selection
}

func (e selectionElement) Text() string {
	return e.sel.Text()
}

func (e selectionElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e selectionElement) Query(selector string) []types.Element {
	return wrapSelection(e.sel.Find(selector))
}

func wrapSelection(sel *goquery.Selection) []types.Element {
	elements := make([]types.Element, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		elements = append(elements, selectionElement{sel: s})
	})
	return elements
}
