package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/plugindex/plugindex/pkg/registry"
	"github.com/plugindex/plugindex/pkg/render"
)

// pruneOpts holds the command-line flags for the prune command.
type pruneOpts struct {
	listing    string
	index      string
	execute    bool
	configPath string
}

func (c *CLI) pruneCommand() *cobra.Command {
	opts := pruneOpts{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove unmaintained entries from the curated listing",
		Long: `Prune reads a previously built plugins.json, classifies every curated
entry against the staleness thresholds, and drops entries whose plugins
are unmaintained. Broken and never-built entries are kept.

The default is a dry run that only reports what would be removed; pass
--execute to rewrite the listing (the previous file is backed up).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrune(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listing, "listing", "l", "", "curated listing file (default from config)")
	cmd.Flags().StringVar(&opts.index, "index", render.IndexFile, "built plugins.json to classify against")
	cmd.Flags().BoolVar(&opts.execute, "execute", false, "apply the removals instead of reporting them")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML config file")

	return cmd
}

func (c *CLI) runPrune(opts pruneOpts) error {
	cfg, err := registry.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.listing != "" {
		cfg.Listing = opts.listing
	}

	entries, err := registry.LoadListing(cfg.Listing)
	if err != nil {
		return err
	}
	idx, err := render.ReadIndex(opts.index)
	if err != nil {
		return err
	}

	result := registry.Prune(entries, idx.Plugins, cfg.StalenessThresholds(), time.Now().UTC())
	if len(result.Removed) == 0 {
		printSuccess("Nothing to prune: all %d entries are maintained", len(entries))
		return nil
	}

	for _, e := range result.Removed {
		printWarning("unmaintained: %s", e.Name)
	}

	if !opts.execute {
		printInfo("Dry run: %d of %d entries would be removed (use --execute to apply)",
			len(result.Removed), len(entries))
		return nil
	}

	if err := registry.SaveListing(cfg.Listing, result.Kept); err != nil {
		return err
	}
	printSuccess("Removed %d entries, %d kept", len(result.Removed), len(result.Kept))
	printDetail("previous listing backed up next to %s", cfg.Listing)
	return nil
}
