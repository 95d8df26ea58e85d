package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/plugindex/plugindex/pkg/github"
	"github.com/plugindex/plugindex/pkg/registry"
	"github.com/plugindex/plugindex/pkg/render"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	listing     string
	outputDir   string
	skipReadme  bool
	dryRun      bool
	timeout     time.Duration
	concurrency int
	refresh     bool
	cacheMode   string
	configPath  string
	verbose     bool
}

func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{}

	cmd := &cobra.Command{
		Use:   "build <token>",
		Short: "Build the registry artifacts from the curated listing",
		Long: `Build fetches metadata for every repository in the curated listing,
validates it, classifies staleness, and writes plugins.json and README.md.

Per-entry failures do not abort the run: broken entries are recorded in the
output with their error so they can be triaged. The exit code is zero when
output was written, even for a partially successful run.

Examples:
  plugindex build $GITHUB_TOKEN
  plugindex build $GITHUB_TOKEN --listing plugins/listing.json -o site/
  plugindex build $GITHUB_TOKEN --dry-run --timeout 10m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose = c.Logger.GetLevel() <= LogDebug
			return c.runBuild(withLogger(cmd.Context(), c.Logger), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listing, "listing", "l", "", "curated listing file (default from config)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&opts.skipReadme, "skip-readme", false, "do not generate the README summary")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "render without writing any files")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "deadline for the whole run (0 = none)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel fetch limit (default from config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().StringVar(&opts.cacheMode, "cache", "", "response cache: file (default), off, or redis://host:port")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML config file")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, token string, opts buildOpts) error {
	cfg, err := registry.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	// Flags override file values.
	if opts.listing != "" {
		cfg.Listing = opts.listing
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	if opts.timeout > 0 {
		ctx2, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		ctx = ctx2
	} else if d := cfg.TimeoutDuration(); d > 0 {
		ctx2, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		ctx = ctx2
	}

	entries, err := registry.LoadListing(cfg.Listing)
	if err != nil {
		return err
	}

	store, err := newCacheStore(ctx, opts.cacheMode)
	if err != nil {
		return err
	}
	defer store.Close()

	client := github.NewClient(github.Config{
		Token:         token,
		BaseURL:       cfg.APIBaseURL,
		Cache:         store,
		CacheTTL:      cfg.CacheTTLDuration(),
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelayDuration(),
		Logger:        c.Logger,
	})

	builder := registry.NewBuilder(client, registry.BuilderConfig{
		Thresholds:  cfg.StalenessThresholds(),
		Concurrency: cfg.Concurrency,
		Refresh:     opts.refresh,
		Logger:      c.Logger,
	})

	track := newProgress(c.Logger)
	stopDisplay := startBuildProgress(opts.verbose)
	reg, buildErr := builder.Build(ctx, entries)
	stopDisplay()

	if reg == nil {
		return buildErr
	}
	track.done("Fetched all entries")

	for _, dup := range reg.Duplicates {
		printWarning("%s", dup.Message)
	}
	if buildErr != nil {
		// Every entry failed. Surface the causes, write nothing.
		for _, rec := range reg.Records {
			if rec.Error != nil {
				printError("%s", rec.Error.Message)
			}
		}
		return buildErr
	}

	artifacts, err := render.Render(ctx, reg, render.Options{SkipReadme: opts.skipReadme})
	if err != nil {
		return err
	}

	if opts.dryRun {
		printInfo("Dry run, nothing written")
		c.printBuildSummary(reg)
		return nil
	}

	if err := artifacts.Write(cfg.OutputDir); err != nil {
		return err
	}

	c.printBuildSummary(reg)
	for _, name := range artifacts.Names() {
		printFile(filepath.Join(cfg.OutputDir, name))
	}
	return nil
}

func (c *CLI) printBuildSummary(reg *registry.Registry) {
	if reg.Partial {
		printWarning("Partial run: the deadline expired before every entry completed")
	}
	printSuccess("%d plugins in the registry", len(reg.Records))
	printDetail("succeeded: %d", reg.Succeeded())
	if n := reg.Broken(); n > 0 {
		printDetail("broken: %d", n)
		for _, rec := range reg.Records {
			if rec.Error != nil {
				printDetail("  %s %s", iconError, rec.Error.Message)
			}
		}
	}
}
