package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	graw "github.com/jamesprial/go-reddit-listings"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

var version = "dev"

// app holds the state shared by all subcommands once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	format     string

	logger *slog.Logger
	client *graw.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "graw",
		Short: "Read complete Reddit listings and comment threads",
		Long: `graw fetches whole listings, oldest first, and threads with every
"load more comments" link resolved.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (default reads REDDIT_* environment variables)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "text", "output format: text, json or html")

	root.AddCommand(
		a.subredditCmd("comments", "List a subreddit's comments", func(cmd *cobra.Command, sub, since string) ([]types.Entity, error) {
			return entities(a.client.GetComments(cmd.Context(), sub, since))
		}),
		a.subredditCmd("submissions", "List a subreddit's submissions", func(cmd *cobra.Command, sub, since string) ([]types.Entity, error) {
			return entities(a.client.GetSubmissions(cmd.Context(), sub, since))
		}),
		a.subredditCmd("modlog", "List a subreddit's moderation log", func(cmd *cobra.Command, sub, since string) ([]types.Entity, error) {
			return entities(a.client.GetModLog(cmd.Context(), sub, since))
		}),
		a.subredditCmd("modmail", "List a subreddit's modmail, most recently active last", func(cmd *cobra.Command, sub, since string) ([]types.Entity, error) {
			return entities(a.client.GetModmail(cmd.Context(), sub, since, 0))
		}),
		a.inboxCmd(),
		a.userCmd(),
		a.threadCmd(),
		a.wikiCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if _, ok := renderers[a.format]; !ok {
		return fmt.Errorf("unknown format %q", a.format)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	client, err := graw.NewClient(cfg.ClientConfig(a.logger))
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// render writes listing entities to the command's output in the selected
// format.
func (a *app) render(cmd *cobra.Command, list []types.Entity) error {
	return a.write(cmd.OutOrStdout(), list)
}

func (a *app) write(w io.Writer, list []types.Entity) error {
	items := make([]item, 0, len(list))
	for _, e := range list {
		items = append(items, itemOf(e, 0))
	}
	return renderers[a.format](w, items)
}

// entities widens a typed listing result.
func entities[T types.Entity](list []T, err error) ([]types.Entity, error) {
	if err != nil {
		return nil, err
	}
	out := make([]types.Entity, len(list))
	for i, e := range list {
		out[i] = e
	}
	return out, nil
}
