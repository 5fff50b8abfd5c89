package sitemap

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/klauspost/compress/gzip"
)

// Kind tags the two shapes a sitemap document can take.
type Kind int

const (
	// KindURLSet lists page URLs.
	KindURLSet Kind = iota
	// KindIndex lists nested sitemap URLs.
	KindIndex
)

func (k Kind) String() string {
	switch k {
	case KindURLSet:
		return "urlset"
	case KindIndex:
		return "index"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Document is a parsed sitemap. URLs is set for KindURLSet, Sitemaps for
// KindIndex.
type Document struct {
	Kind     Kind
	URLs     []string
	Sitemaps []string
}

var errNotXML = errors.New("document is not XML")

var gzipMagic = []byte{0x1f, 0x8b}

// decompress gunzips body when the content type or the magic bytes say it is gzip.
func decompress(contentType string, body []byte) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	gzipped := mediaType == "application/x-gzip" || mediaType == "application/gzip"
	if !gzipped && !bytes.HasPrefix(body, gzipMagic) {
		return body, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}

// ParseDocument parses a sitemap body. XML is tried first; content that is not
// XML is read as a newline-delimited list of URLs.
func ParseDocument(body []byte) Document {
	doc, err := parseXML(body)
	if err == nil {
		return doc
	}
	return Document{Kind: KindURLSet, URLs: parseTextList(body)}
}

const (
	urlLocExpr     = "//*[local-name()='url']/*[local-name()='loc']"
	bareLocExpr    = "//*[local-name()='loc'][not(ancestor::*[local-name()='sitemap']) and not(ancestor::*[local-name()='url'])]"
	sitemapLocExpr = "//*[local-name()='sitemap']/*[local-name()='loc']"
	sitemapExpr    = "//*[local-name()='sitemap']"
)

func parseXML(body []byte) (Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", errNotXML, err)
	}
	if !hasElement(root) {
		return Document{}, errNotXML
	}

	var urls []string
	for _, n := range xmlquery.Find(root, urlLocExpr) {
		urls = appendLoc(urls, n)
	}
	if len(urls) == 0 {
		for _, n := range xmlquery.Find(root, bareLocExpr) {
			urls = appendLoc(urls, n)
		}
	}
	if len(urls) > 0 {
		return Document{Kind: KindURLSet, URLs: urls}, nil
	}

	if len(xmlquery.Find(root, sitemapExpr)) > 0 {
		var nested []string
		for _, n := range xmlquery.Find(root, sitemapLocExpr) {
			nested = appendLoc(nested, n)
		}
		return Document{Kind: KindIndex, Sitemaps: nested}, nil
	}

	return Document{Kind: KindURLSet}, nil
}

func appendLoc(dst []string, n *xmlquery.Node) []string {
	if loc := strings.TrimSpace(n.InnerText()); loc != "" {
		return append(dst, loc)
	}
	return dst
}

func hasElement(root *xmlquery.Node) bool {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

// parseTextList returns every trimmed, non-empty line starting with "http".
func parseTextList(body []byte) []string {
	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls
}
