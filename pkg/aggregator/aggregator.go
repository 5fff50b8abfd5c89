// Package aggregator runs page extraction over a discovered URL list and
// assembles the results into one ordered document.
package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/site2md/internal/logging"
	"github.com/amosWeiskopf/site2md/internal/models"
)

// PageExtractor extracts a single page. Implementations report failures in
// the returned result.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) models.PageResult
}

// ProgressFunc is called after each page completes. Calls are serialized.
type ProgressFunc func(done, total int, result models.PageResult)

// Aggregator orchestrates extraction across many URLs
type Aggregator struct {
	extractor  PageExtractor
	maxWorkers int
	onPage     ProgressFunc
	logger     *log.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMaxWorkers bounds the number of pages fetched concurrently.
func WithMaxWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxWorkers = n
		}
	}
}

// WithProgress registers a callback invoked once per finished page.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Aggregator) {
		a.onPage = fn
	}
}

// New creates an Aggregator. Without options pages are processed one at a time.
func New(extractor PageExtractor, logger *log.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		extractor:  extractor,
		maxWorkers: 1,
		logger:     logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate extracts every URL exactly once and returns the results in the
// order of urls. Page failures are kept as diagnostics in their slot. When ctx
// is cancelled no new pages are started and the document holds only the pages
// that finished, still in order, with Cancelled set.
func (a *Aggregator) Aggregate(ctx context.Context, source string, urls []string) *models.ConsolidatedDocument {
	a.logger.Info("aggregating pages", "total", len(urls), "workers", a.maxWorkers)
	start := time.Now()

	slots := make([]*models.PageResult, len(urls))

	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(a.maxWorkers)

	for i, pageURL := range urls {
		if ctx.Err() != nil {
			break
		}
		i, pageURL := i, pageURL
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result := a.extractor.Extract(ctx, pageURL)
			if interrupted(ctx, result) {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			slots[i] = &result
			done++
			if a.onPage != nil {
				a.onPage(done, len(urls), result)
			}
			return nil
		})
	}
	_ = g.Wait()

	doc := &models.ConsolidatedDocument{
		Source:      source,
		GeneratedAt: time.Now(),
		Pages:       make([]models.PageResult, 0, len(urls)),
	}
	for _, slot := range slots {
		if slot == nil {
			doc.Cancelled = true
			continue
		}
		doc.Pages = append(doc.Pages, *slot)
	}

	a.logger.Info("aggregation complete",
		"pages", len(doc.Pages),
		"cancelled", doc.Cancelled,
		"elapsed", time.Since(start),
	)
	return doc
}

// interrupted reports whether result failed because ctx was cancelled, as
// opposed to a page failure that happened to finish around cancellation.
func interrupted(ctx context.Context, result models.PageResult) bool {
	err := ctx.Err()
	return err != nil && !result.Succeeded && errors.Is(result.Cause, err)
}
