package sitemap

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/amosWeiskopf/site2md/internal/logging"
	"github.com/amosWeiskopf/site2md/pkg/crawler"
	"github.com/amosWeiskopf/site2md/pkg/utils"
)

// DefaultMaxDepth bounds sitemap index nesting.
const DefaultMaxDepth = 10

var (
	// ErrNoURLs is returned when no strategy produced a single page URL.
	ErrNoURLs = errors.New("no pages found")

	// ErrMaxDepth marks a sitemap index nested deeper than the configured cap.
	ErrMaxDepth = errors.New("sitemap index nesting too deep")
)

// Resolver flattens a sitemap, following sitemap indexes, into page URLs.
type Resolver struct {
	client      crawler.Client
	maxDepth    int
	concurrency int
	inflight    *semaphore.Weighted
	logger      *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxDepth caps sitemap index recursion.
func WithMaxDepth(depth int) ResolverOption {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithConcurrency bounds how many sitemap documents are fetched at once,
// across every level of nesting.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(client crawler.Client, logger *log.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:      client,
		maxDepth:    DefaultMaxDepth,
		concurrency: 1,
		logger:      logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.inflight = semaphore.NewWeighted(int64(r.concurrency))
	return r
}

// Resolve returns the page URLs declared by the sitemap at sitemapURL, in
// document order and without deduplication. Failing nested sitemaps are
// skipped. When nothing at all is found the result is empty and the error
// wraps ErrNoURLs together with the collected diagnostics.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) ([]string, error) {
	urls, errs := r.resolve(ctx, sitemapURL, 0)
	if len(urls) == 0 {
		errs = append([]error{ErrNoURLs}, errs...)
		return []string{}, errors.Join(errs...)
	}
	for _, err := range errs {
		r.logger.Warn("sitemap branch skipped", "err", err)
	}
	return urls, nil
}

func (r *Resolver) resolve(ctx context.Context, sitemapURL string, depth int) ([]string, []error) {
	if depth > r.maxDepth {
		return nil, []error{fmt.Errorf("%s: %w (limit %d)", sitemapURL, ErrMaxDepth, r.maxDepth)}
	}

	doc, err := r.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, []error{err}
	}

	switch doc.Kind {
	case KindIndex:
		r.logger.Debug("sitemap index", "url", sitemapURL, "children", len(doc.Sitemaps), "depth", depth)
		return r.resolveChildren(ctx, doc.Sitemaps, depth+1)
	default:
		r.logger.Debug("sitemap urlset", "url", sitemapURL, "urls", len(doc.URLs), "depth", depth)
		if len(doc.URLs) == 0 {
			return nil, []error{fmt.Errorf("%s: no URLs in document", sitemapURL)}
		}
		return doc.URLs, nil
	}
}

// resolveChildren resolves sibling sitemaps concurrently and concatenates
// their results in element order. Only fetches hold a slot of r.inflight, so a
// parent waiting on its children never blocks them.
func (r *Resolver) resolveChildren(ctx context.Context, children []string, depth int) ([]string, []error) {
	type branch struct {
		urls []string
		errs []error
	}
	results := make([]branch, len(children))

	g := new(errgroup.Group)
	for i, child := range children {
		if ctx.Err() != nil {
			results[i].errs = []error{fmt.Errorf("%s: %w", child, ctx.Err())}
			continue
		}
		i, child := i, child
		g.Go(func() error {
			urls, errs := r.resolve(ctx, child, depth)
			results[i] = branch{urls: urls, errs: errs}
			return nil
		})
	}
	_ = g.Wait()

	var (
		urls []string
		errs []error
	)
	for _, b := range results {
		urls = append(urls, b.urls...)
		errs = append(errs, b.errs...)
	}
	return urls, errs
}

func (r *Resolver) fetch(ctx context.Context, sitemapURL string) (Document, error) {
	if err := r.inflight.Acquire(ctx, 1); err != nil {
		return Document{}, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}
	resp, err := r.client.Get(ctx, sitemapURL)
	r.inflight.Release(1)
	if err != nil {
		return Document{}, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}

	body, err := decompress(resp.ContentType, resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("decode sitemap %s: %w", sitemapURL, err)
	}

	doc := ParseDocument(body)
	doc.URLs = r.absolute(sitemapURL, doc.URLs)
	doc.Sitemaps = r.absolute(sitemapURL, doc.Sitemaps)
	return doc, nil
}

// absolute resolves locs against base and drops entries that still are not
// absolute URLs with a host.
func (r *Resolver) absolute(base string, locs []string) []string {
	if locs == nil {
		return nil
	}
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		resolved := utils.ResolveURL(base, loc)
		if !utils.IsAbsoluteURL(resolved) {
			r.logger.Warn("skipping sitemap entry", "sitemap", base, "loc", loc)
			continue
		}
		out = append(out, resolved)
	}
	return out
}

// Discover locates the sitemap of rootURL and resolves it.
func Discover(ctx context.Context, locator *Locator, resolver *Resolver, rootURL string) ([]string, error) {
	return resolver.Resolve(ctx, locator.Locate(ctx, rootURL))
}
