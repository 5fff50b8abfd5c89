package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var a app

	rootCmd := &cobra.Command{
		Use:   "site2md",
		Short: "site2md - Turn a website's sitemap into one Markdown document",
		Long: `site2md locates a website's sitemap, flattens nested sitemap indexes
into a list of pages, and extracts the main content of every page into a
single consolidated Markdown document.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")
			return a.setup(configPath, verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")

	rootCmd.AddCommand(newDigestCmd(&a))
	rootCmd.AddCommand(newSitemapCmd(&a))
	return rootCmd
}

func newDigestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest [URL]",
		Short: "Scrape every page in the sitemap into one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyDigestFlags(cmd)
			showTree, _ := cmd.Flags().GetBool("tree")
			progress, _ := cmd.Flags().GetBool("progress")
			return a.run(func() error {
				return a.digest(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], showTree, progress)
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default <host>.md)")
	cmd.Flags().String("format", "markdown", "Document format (markdown, json)")
	cmd.Flags().Int("workers", 4, "Pages fetched concurrently")
	cmd.Flags().Duration("timeout", 0, "Per-request timeout (default from config)")
	cmd.Flags().String("fallback", "none", "Extraction for pages without a content region (none, trafilatura)")
	cmd.Flags().Bool("tree", false, "Print the URL tree before scraping")
	cmd.Flags().Bool("progress", false, "Show a progress spinner")
	return cmd
}

func newSitemapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap [URL]",
		Short: "Discover a site's pages and print them as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, _ := cmd.Flags().GetInt("depth")
			list, _ := cmd.Flags().GetBool("list")
			if !cmd.Flags().Changed("depth") {
				depth = a.cfg.Output.TreeDepth
			}
			return a.run(func() error {
				return a.printSitemap(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], depth, list)
			})
		},
	}

	cmd.Flags().Int("depth", 5, "Deepest tree level to print")
	cmd.Flags().Bool("list", false, "Print the flat URL list instead of a tree")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
