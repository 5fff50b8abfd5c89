package sitemap

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/temoto/robotstxt"

	"github.com/amosWeiskopf/site2md/internal/logging"
	"github.com/amosWeiskopf/site2md/pkg/crawler"
	"github.com/amosWeiskopf/site2md/pkg/utils"
)

// CommonPaths are probed in order when the input is not a sitemap URL.
var CommonPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap/",
	"/sitemap/sitemap.xml",
}

// Locator finds the sitemap URL for a site.
type Locator struct {
	client crawler.Client
	logger *log.Logger
}

// NewLocator creates a Locator using client for probes.
func NewLocator(client crawler.Client, logger *log.Logger) *Locator {
	return &Locator{client: client, logger: logging.OrDiscard(logger)}
}

// Locate returns the sitemap URL for rootURL. It never fails: when no
// strategy succeeds the root URL itself is returned.
func (l *Locator) Locate(ctx context.Context, rootURL string) string {
	if strings.HasSuffix(rootURL, ".xml") {
		return rootURL
	}

	for _, step := range []func(context.Context, string) (string, bool){
		l.probeCommonPaths,
		l.fromRobots,
	} {
		if found, ok := step(ctx, rootURL); ok {
			l.logger.Info("sitemap located", "url", found)
			return found
		}
	}

	l.logger.Warn("no sitemap found, using root URL", "url", rootURL)
	return rootURL
}

func (l *Locator) probeCommonPaths(ctx context.Context, rootURL string) (string, bool) {
	for _, path := range CommonPaths {
		candidate := utils.ResolveURL(rootURL, path)
		status, err := l.client.Head(ctx, candidate)
		if err != nil {
			l.logger.Debug("sitemap probe failed", "url", candidate, "err", err)
			continue
		}
		if status == http.StatusOK {
			return candidate, true
		}
	}
	return "", false
}

func (l *Locator) fromRobots(ctx context.Context, rootURL string) (string, bool) {
	robotsURL := utils.ResolveURL(rootURL, "/robots.txt")
	resp, err := l.client.Get(ctx, robotsURL)
	if err != nil {
		l.logger.Debug("robots.txt unavailable", "url", robotsURL, "err", err)
		return "", false
	}
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var (
		value string
		ok    bool
	)
	robots, err := robotstxt.FromBytes(resp.Body)
	if err == nil {
		if len(robots.Sitemaps) > 0 {
			value, ok = strings.TrimSpace(robots.Sitemaps[0]), true
		}
	} else {
		l.logger.Debug("robots.txt parse failed, scanning lines", "url", robotsURL, "err", err)
		value, ok = scanSitemapLine(resp.Body)
	}
	if !ok {
		return "", false
	}

	sitemapURL := utils.ResolveURL(robotsURL, value)
	if !utils.IsAbsoluteURL(sitemapURL) {
		l.logger.Debug("robots.txt sitemap unusable", "url", robotsURL, "value", value)
		return "", false
	}
	return sitemapURL, true
}

// scanSitemapLine returns the value of the first line starting with
// "sitemap:", compared case-insensitively.
func scanSitemapLine(body []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			_, value, _ := strings.Cut(line, ":")
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
