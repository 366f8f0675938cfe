// Package graw is a Go client for the Reddit API built around complete
// listings and complete comment trees.
//
// # Overview
//
// Most API listings are cursor paginated and capped at a hundred items per
// page. graw walks those cursors for you: every listing method returns the
// whole result, oldest first, either everything newer than a fullname you
// already saw or the newest Config.ListingLimit items. Threads come back with
// every "load more comments" placeholder resolved.
//
// # Quick Start
//
//	client, err := graw.NewClient(&graw.Config{
//		ClientID:     "your-client-id",
//		ClientSecret: "your-client-secret",
//		UserAgent:    "myapp/1.0 by /u/yourusername",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	comments, err := client.GetComments(ctx, "golang", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Authentication Types
//
// Application-Only Authentication (script apps):
//   - Requires only ClientID and ClientSecret
//   - Enough for moderation-free reads
//
// User Authentication:
//   - Requires ClientID, ClientSecret, Username, and Password
//   - Needed for the inbox, modmail, moderation endpoints and every command
//
// Public listings and threads need neither and are sent without a token. The
// token is requested on the first call that needs one and renewed shortly
// before it expires.
//
// # Following a Listing
//
// Pass the fullname of the newest item you processed as start to receive only
// what came after it:
//
//	last := ""
//	for {
//		comments, err := client.GetComments(ctx, "golang", last)
//		if err != nil {
//			return err
//		}
//		for _, c := range comments {
//			handle(c)
//		}
//		if len(comments) > 0 {
//			last = comments[len(comments)-1].Name
//		}
//		time.Sleep(time.Minute)
//	}
//
// If start has dropped out of the listing (deleted, or too old), the client
// walks back from the newest item until it passes start instead, so nothing
// in between is missed. No listing returns more than 2000 items.
//
// # Threads
//
//	thread, err := client.GetThread(ctx, "abc123")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tree := graw.NewCommentTree(thread.Comments)
//	fmt.Printf("%s: %d comments, %d levels\n", thread.Submission.Title, tree.Count(), tree.GetDepth()+1)
//
// Resolving placeholders costs one morechildren request per two hidden
// comments, each subject to the rate limit.
//
// # Rate Limiting
//
// Requests are spaced at least Config.MinRequestInterval apart (one second by
// default). Retry-After and X-Ratelimit headers push the next request back
// further. Requests are never retried.
//
// # Error Handling
//
// Errors are typed; use errors.As with the types in pkg/errors:
//
//	posts, err := client.GetUserSubmitted(ctx, "someone", "", 0)
//	var notFound *errors.UserNotFoundError
//	var apiErr *errors.APIError
//	switch {
//	case errors.As(err, &notFound):
//		// Deleted, suspended or shadowbanned account
//	case errors.As(err, &apiErr):
//		// Reddit returned a non-2xx status or a command error
//	}
//
// # Logging and Metrics
//
// Provide a *slog.Logger in Config.Logger for request-level debug logs and
// warnings about skipped or malformed things. Provide a
// prometheus.Registerer in Config.Registerer to export request counts,
// rate-limit waits and listing sizes.
package graw
