package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/site2md/internal/config"
	"github.com/amosWeiskopf/site2md/internal/logging"
	"github.com/amosWeiskopf/site2md/internal/models"
	"github.com/amosWeiskopf/site2md/pkg/aggregator"
	"github.com/amosWeiskopf/site2md/pkg/analyzer"
	"github.com/amosWeiskopf/site2md/pkg/crawler"
	"github.com/amosWeiskopf/site2md/pkg/extractor"
	"github.com/amosWeiskopf/site2md/pkg/reporter"
	"github.com/amosWeiskopf/site2md/pkg/sitemap"
	"github.com/amosWeiskopf/site2md/pkg/utils"
)

const noURLsWarning = "No URLs found in the sitemap. Please check the URL and try again."

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfg    *config.Config
	logger *log.Logger
	closer io.Closer
}

func (a *app) setup(configPath string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// run executes fn and releases the log output whether or not fn succeeds.
func (a *app) run(fn func() error) (err error) {
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	return fn()
}

// applyDigestFlags lets explicitly set flags override the loaded configuration.
func (a *app) applyDigestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		a.cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		a.cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("workers") {
		a.cfg.Crawler.MaxWorkers, _ = flags.GetInt("workers")
	}
	if flags.Changed("timeout") {
		a.cfg.Crawler.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("fallback") {
		a.cfg.Extract.Fallback, _ = flags.GetString("fallback")
	}
}

func (a *app) fetcher() *crawler.Fetcher {
	return crawler.New(crawler.Options{
		Timeout:      a.cfg.Crawler.Timeout,
		UserAgent:    a.cfg.Crawler.UserAgent,
		MaxIdleConns: a.cfg.Crawler.MaxIdleConns,
	}, a.logger)
}

// discover locates and resolves the sitemap of rootURL. A nil slice with a
// nil error means nothing was found and the warning has been printed.
func (a *app) discover(ctx context.Context, client crawler.Client, stderr io.Writer, rootURL string, progress bool) ([]string, error) {
	locator := sitemap.NewLocator(client, a.logger)
	resolver := sitemap.NewResolver(client, a.logger,
		sitemap.WithMaxDepth(a.cfg.Crawler.MaxSitemapDepth),
		sitemap.WithConcurrency(a.cfg.Crawler.MaxWorkers),
	)

	s := newSpinner(stderr, progress, " Fetching sitemap...")
	urls, err := sitemap.Discover(ctx, locator, resolver, rootURL)
	s.Stop()

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sitemap discovery interrupted: %w", ctx.Err())
		}
		a.logger.Debug("sitemap discovery failed", "url", rootURL, "err", err)
		fmt.Fprintln(stderr, noURLsWarning)
		return nil, nil
	}
	a.logger.Info("sitemap resolved", "url", rootURL, "pages", len(urls))
	return urls, nil
}

func (a *app) digest(ctx context.Context, stdout, stderr io.Writer, rootURL string, showTree, progress bool) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	client := a.fetcher()
	urls, err := a.discover(ctx, client, stderr, rootURL, progress)
	if err != nil || urls == nil {
		return err
	}

	if showTree {
		if err := sitemap.BuildTree(urls).Render(stderr, a.cfg.Output.TreeDepth); err != nil {
			return fmt.Errorf("failed to render tree: %w", err)
		}
	}

	s := newSpinner(stderr, progress, " Scraping pages...")
	ext := extractor.New(client, a.logger, extractor.WithFallback(extractor.Fallback(a.cfg.Extract.Fallback)))
	agg := aggregator.New(ext, a.logger,
		aggregator.WithMaxWorkers(a.cfg.Crawler.MaxWorkers),
		aggregator.WithProgress(func(done, total int, result models.PageResult) {
			s.Lock()
			s.Suffix = fmt.Sprintf(" Scraping pages... %d/%d", done, total)
			s.Unlock()
		}),
	)
	doc := agg.Aggregate(ctx, rootURL, urls)
	s.Stop()

	path := a.outputPath(rootURL)
	if err := a.writeDocument(stdout, path, doc); err != nil {
		return err
	}

	summary := analyzer.New().Summarize(doc)
	a.logger.Info("document written",
		"path", path,
		"pages", summary.TotalPages,
		"failed", summary.Failed,
		"content_not_found", summary.ContentNotFound,
		"words", summary.Words,
		"reading_minutes", summary.ReadingMinutes,
	)
	if path != "-" {
		fmt.Fprintf(stderr, "Saved %d pages (%d failed) to %s\n", summary.TotalPages, summary.Failed, path)
	}

	if doc.Cancelled {
		return fmt.Errorf("interrupted after %d of %d pages: %w", len(doc.Pages), len(urls), context.Cause(ctx))
	}
	return nil
}

func (a *app) printSitemap(ctx context.Context, stdout, stderr io.Writer, rootURL string, depth int, list bool) error {
	urls, err := a.discover(ctx, a.fetcher(), stderr, rootURL, false)
	if err != nil || urls == nil {
		return err
	}

	if list {
		_, err := io.WriteString(stdout, strings.Join(urls, "\n")+"\n")
		return err
	}
	return sitemap.BuildTree(urls).Render(stdout, depth)
}

// outputPath returns the configured path, or <host>.md derived from rootURL.
func (a *app) outputPath(rootURL string) string {
	if a.cfg.Output.Path != "" {
		return a.cfg.Output.Path
	}

	ext := ".md"
	if a.cfg.Output.Format == reporter.FormatJSON {
		ext = ".json"
	}
	host, _, err := utils.HostAndSegments(rootURL)
	if err != nil || host == "" {
		host = "site"
	}
	return utils.SanitizeFilename(host + ext)
}

func (a *app) writeDocument(stdout io.Writer, path string, doc *models.ConsolidatedDocument) error {
	r := reporter.New()
	if path == "-" {
		return r.Write(stdout, doc, a.cfg.Output.Format)
	}

	out, err := r.Render(doc, a.cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// newSpinner starts a spinner on w when enabled. A disabled spinner is never
// started, so Stop and Suffix updates are harmless.
func newSpinner(w io.Writer, enabled bool, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond,
		spinner.WithWriter(w),
		spinner.WithSuffix(suffix),
	)
	if enabled {
		s.Start()
	}
	return s
}
