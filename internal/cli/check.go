package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/github"
	"github.com/plugindex/plugindex/pkg/registry"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	tag      string
	subdir   string
	viewOnly bool
}

func (c *CLI) checkCommand() *cobra.Command {
	opts := checkOpts{}

	cmd := &cobra.Command{
		Use:   "check <owner/repo> <token>",
		Short: "Validate a repository for inclusion in the registry",
		Long: `Check verifies that a submitted repository is ready for the curated
listing: it must have a published release (unless --view-only) and a
plugin.json at the resolved ref that passes the descriptor schema.

Examples:
  plugindex check Vector35/example $GITHUB_TOKEN
  plugindex check someone/tool $GITHUB_TOKEN --tag v1.2 --subdir plugin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.tag, "tag", "", "release tag to check (default: latest release)")
	cmd.Flags().StringVar(&opts.subdir, "subdir", "", "directory holding plugin.json")
	cmd.Flags().BoolVar(&opts.viewOnly, "view-only", false, "check as a view-only entry (no release required)")

	return cmd
}

func (c *CLI) runCheck(cmd *cobra.Command, ref, token string, opts checkOpts) error {
	if err := errors.ValidateRepoRef(ref); err != nil {
		return err
	}
	owner, name, _ := strings.Cut(ref, "/")

	client := github.NewClient(github.Config{Token: token, Logger: c.Logger})
	raw, err := client.CheckSubmission(cmd.Context(), owner, name, github.FetchOptions{
		Tag:        opts.tag,
		AutoUpdate: opts.tag == "",
		ViewOnly:   opts.viewOnly,
		Subdir:     opts.subdir,
	})
	if err != nil {
		printError("%s: %s", ref, errors.UserMessage(err))
		return err
	}

	entry := registry.CuratedEntry{
		Name:     ref,
		Tag:      opts.tag,
		ViewOnly: opts.viewOnly,
		Subdir:   opts.subdir,
	}
	rec, err := registry.DefaultSchema().Validate(entry, raw)
	if err != nil {
		printError("%s: %s", ref, errors.UserMessage(err))
		return err
	}

	printSuccess("%s is ready for the listing", ref)
	printKeyValue("Plugin", rec.Name)
	printKeyValue("Author", rec.Author)
	printKeyValue("Last updated", rec.LastUpdated.Format("2006-01-02"))
	if raw.Release != nil {
		printKeyValue("Release", raw.Release.Tag)
	}
	if rec.License != "" {
		printKeyValue("License", rec.License)
	}
	printKeyValue("API", strings.Join(rec.APIVersions, ", "))
	return nil
}
