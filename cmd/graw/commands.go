package main

import (
	"fmt"

	"github.com/spf13/cobra"

	graw "github.com/jamesprial/go-reddit-listings"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

type subredditFetch func(cmd *cobra.Command, subreddit, since string) ([]types.Entity, error)

func (a *app) subredditCmd(use, short string, fetch subredditFetch) *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   use + " <subreddit>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := fetch(cmd, args[0], since)
			if err != nil {
				return err
			}
			return a.render(cmd, list)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only list items newer than this fullname")
	return cmd
}

func (a *app) inboxCmd() *cobra.Command {
	var since string
	var sent bool
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List the account's inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list []types.Entity
			var err error
			if sent {
				list, err = entities(a.client.GetSent(cmd.Context(), since))
			} else {
				list, err = a.client.GetInbox(cmd.Context(), since)
			}
			if err != nil {
				return err
			}
			return a.render(cmd, list)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only list items newer than this fullname")
	cmd.Flags().BoolVar(&sent, "sent", false, "list sent messages instead")
	return cmd
}

func (a *app) userCmd() *cobra.Command {
	var since, kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "user [username]",
		Short: "List a user's comments and submissions",
		Long:  "List a user's comments and submissions. Without a username the configured account is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := ""
			if len(args) == 1 {
				user = args[0]
			}

			var list []types.Entity
			var err error
			switch kind {
			case "overview":
				list, err = a.client.GetUserOverview(cmd.Context(), user, since, limit)
			case "comments":
				list, err = entities(a.client.GetUserComments(cmd.Context(), user, since, limit))
			case "submitted":
				list, err = entities(a.client.GetUserSubmitted(cmd.Context(), user, since, limit))
			default:
				return fmt.Errorf("unknown kind %q", kind)
			}
			if err != nil {
				return err
			}
			return a.render(cmd, list)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only list items newer than this fullname")
	cmd.Flags().StringVar(&kind, "kind", "overview", "overview, comments or submitted")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items (default is the configured listing limit)")
	return cmd
}

func (a *app) threadCmd() *cobra.Command {
	var minScore, maxDepth int
	var breadth bool
	cmd := &cobra.Command{
		Use:   "thread <id>",
		Short: "Print a submission with its complete comment tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := a.client.GetThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			order := graw.DepthFirst
			if breadth {
				order = graw.BreadthFirst
			}
			it := graw.NewCommentIterator(thread.Comments, &graw.TraversalOptions{
				MinScore: minScore,
				MaxDepth: maxDepth,
				Order:    order,
			})

			items := []item{itemOf(thread.Submission, 0)}
			for _, c := range it.Collect() {
				items = append(items, itemOf(c, it.Depth(c)+1))
			}
			return renderers[a.format](cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().IntVar(&minScore, "min-score", 0, "skip comments scoring below this")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "do not descend below this depth (0 is unlimited)")
	cmd.Flags().BoolVar(&breadth, "breadth-first", false, "print level by level")
	return cmd
}

func (a *app) wikiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wiki <subreddit> <page>",
		Short: "Print a wiki page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client.WikiGet(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.render(cmd, []types.Entity{page})
		},
	}
}
