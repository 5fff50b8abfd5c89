package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/jaytaylor/html2text"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html/charset"

	"github.com/amosWeiskopf/site2md/internal/logging"
	"github.com/amosWeiskopf/site2md/internal/models"
	"github.com/amosWeiskopf/site2md/pkg/crawler"
	"github.com/amosWeiskopf/site2md/pkg/utils"
)

// Fallback names the strategy used when a page has no content region.
type Fallback string

const (
	// FallbackNone reports "Content not found" for pages without a region.
	FallbackNone Fallback = "none"
	// FallbackTrafilatura extracts the main text of the whole page instead.
	FallbackTrafilatura Fallback = "trafilatura"
)

// regionSelectors are tried in order; the first match is the content region.
var regionSelectors = []string{"main", "article", ".content"}

// Extractor turns a page into a title and readable text
type Extractor struct {
	client   crawler.Client
	fallback Fallback
	logger   *log.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFallback sets the strategy for pages without a content region.
func WithFallback(f Fallback) Option {
	return func(e *Extractor) {
		if f != "" {
			e.fallback = f
		}
	}
}

// New creates a new Extractor instance
func New(client crawler.Client, logger *log.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		client:   client,
		fallback: FallbackNone,
		logger:   logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches pageURL once and extracts its title and content. Failures
// are reported in the result, never returned.
func (e *Extractor) Extract(ctx context.Context, pageURL string) models.PageResult {
	resp, err := e.client.Get(ctx, pageURL)
	if err != nil {
		e.logger.Warn("page fetch failed", "url", pageURL, "err", err)
		return failed(pageURL, err)
	}

	title, body, err := e.ExtractHTML(resp.Body, resp.ContentType)
	if err != nil {
		e.logger.Warn("page parse failed", "url", pageURL, "err", err)
		return failed(pageURL, err)
	}

	e.logger.Debug("page extracted", "url", pageURL, "title", title, "chars", len(body))
	return models.PageResult{
		URL:       pageURL,
		Title:     title,
		Body:      body,
		Succeeded: true,
	}
}

func failed(pageURL string, err error) models.PageResult {
	return models.PageResult{
		URL:   pageURL,
		Title: models.DefaultTitle,
		Body:  fmt.Sprintf("Error scraping %s: %v", pageURL, err),
		Err:   err.Error(),
		Cause: err,
	}
}

// ExtractHTML parses an HTML body and returns its title and readable content.
func (e *Extractor) ExtractHTML(body []byte, contentType string) (title, text string, err error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = ExtractTitle(doc)

	region := SelectRegion(doc)
	if region == nil {
		return title, e.fallbackText(body), nil
	}

	text, err = RegionText(region)
	if err != nil {
		return "", "", fmt.Errorf("convert content: %w", err)
	}
	return title, text, nil
}

func (e *Extractor) fallbackText(body []byte) string {
	if e.fallback != FallbackTrafilatura {
		return models.ContentNotFound
	}
	text, err := ExtractText(bytes.NewReader(body))
	if err != nil || strings.TrimSpace(text) == "" {
		return models.ContentNotFound
	}
	return text
}

// ExtractTitle returns the trimmed text of the first <title>, or "No Title".
func ExtractTitle(doc *goquery.Document) string {
	title := utils.CleanText(doc.Find("title").First().Text())
	if title == "" {
		return models.DefaultTitle
	}
	return title
}

// SelectRegion returns the primary content region: the first <main>, else
// the first <article>, else the first element with class "content".
// It returns nil when none exists.
func SelectRegion(doc *goquery.Document) *goquery.Selection {
	for _, selector := range regionSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// RegionText converts the markup of sel to plain text, keeping headings,
// lists and emphasis in a lightweight textual form.
func RegionText(sel *goquery.Selection) (string, error) {
	if sel == nil || len(sel.Nodes) == 0 {
		return "", nil
	}
	return html2text.FromHTMLNode(sel.Nodes[0])
}

// ExtractText extracts clean text from a whole HTML page using trafilatura
func ExtractText(r io.Reader) (string, error) {
	result, err := trafilatura.Extract(r, trafilatura.Options{})
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return result.ContentText, nil
}
