package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/cobra"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

type fetchFunc func(ctx context.Context, since string) ([]types.Entity, error)

// watcher polls one listing, printing what is new since the last poll. The
// newest fullname seen is kept in memory and, with a state file, on disk.
type watcher struct {
	fetch  fetchFunc
	state  string
	last   string
	render func(io.Writer, []types.Entity) error
	logger *slog.Logger
}

func (w *watcher) load() error {
	if w.state == "" {
		return nil
	}
	data, err := os.ReadFile(w.state)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	w.last = strings.TrimSpace(string(data))
	return nil
}

func (w *watcher) save() error {
	if w.state == "" {
		return nil
	}
	if err := os.WriteFile(w.state, []byte(w.last+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// tick fetches everything after the last fullname seen and prints it.
func (w *watcher) tick(ctx context.Context, out io.Writer) error {
	list, err := w.fetch(ctx, w.last)
	if err != nil {
		return err
	}
	w.logger.Debug("poll finished", "since", w.last, "items", len(list))
	if len(list) == 0 {
		return nil
	}
	if err := w.render(out, list); err != nil {
		return err
	}
	w.last = list[len(list)-1].GetName()
	return w.save()
}

// run polls on every tick of schedule until ctx is done. Failed polls are
// logged and retried on the next tick.
func (w *watcher) run(ctx context.Context, schedule string, out io.Writer) error {
	for {
		next, err := gronx.NextTickAfter(schedule, time.Now(), false)
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := w.tick(ctx, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("poll failed", "error", err)
		}
	}
}

func (a *app) watchCmd() *cobra.Command {
	var kind, schedule, state string
	var once bool
	cmd := &cobra.Command{
		Use:   "watch <subreddit>",
		Short: "Print new comments or submissions as they arrive",
		Long: `Poll a subreddit on a cron schedule and print what is new since the last
poll. With --state the newest fullname is kept in a file so a restarted watch
continues where it stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subreddit := args[0]

			var fetch fetchFunc
			switch kind {
			case "comments":
				fetch = func(ctx context.Context, since string) ([]types.Entity, error) {
					return entities(a.client.GetComments(ctx, subreddit, since))
				}
			case "submissions":
				fetch = func(ctx context.Context, since string) ([]types.Entity, error) {
					return entities(a.client.GetSubmissions(ctx, subreddit, since))
				}
			default:
				return fmt.Errorf("unknown kind %q", kind)
			}
			if !gronx.New().IsValid(schedule) {
				return fmt.Errorf("invalid schedule %q", schedule)
			}

			w := &watcher{
				fetch:  fetch,
				state:  state,
				render: a.write,
				logger: a.logger.With("subreddit", subreddit, "kind", kind),
			}
			if err := w.load(); err != nil {
				return err
			}

			if err := w.tick(cmd.Context(), cmd.OutOrStdout()); err != nil || once {
				return err
			}
			return w.run(cmd.Context(), schedule, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "comments", "comments or submissions")
	cmd.Flags().StringVar(&schedule, "cron", "* * * * *", "poll schedule as a cron expression")
	cmd.Flags().StringVar(&state, "state", "", "file keeping the newest fullname between runs")
	cmd.Flags().BoolVar(&once, "once", false, "poll once and exit")
	return cmd
}
