package graw

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jamesprial/go-reddit-listings/internal"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
	"github.com/jamesprial/go-reddit-listings/pkg/validation"
)

// fetchThread requests a thread with the given comment limit and parses the
// submission and its inline comment tree.
func (c *Client) fetchThread(ctx context.Context, id string, limit int) (*types.Thread, error) {
	if err := c.validator.ValidateThingID("id", id); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var response []*types.Thing
	if err := c.api.Call(ctx, internal.EndpointThread, params, &response, id); err != nil {
		return nil, err
	}
	return c.factory.ParseThread(response)
}

// GetThread returns a submission together with its complete comment tree.
// id is the submission id without the "t3_" prefix.
//
// Every "more" placeholder in the tree is resolved through morechildren
// calls, so the returned Comments hold no *types.More node. Large threads
// take many requests; the client's rate limit applies to each of them.
func (c *Client) GetThread(ctx context.Context, id string) (*types.Thread, error) {
	limit := c.config.ListingLimit
	if limit == 0 {
		limit = types.DefaultListingLimit
	}

	thread, err := c.fetchThread(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	linkID := thread.Submission.Name
	if linkID == "" {
		linkID = validation.LinkFullname(id)
	}

	comments, err := c.resolver.Resolve(ctx, thread.Comments, linkID)
	if err != nil {
		return nil, err
	}
	thread.Comments = comments
	return thread, nil
}

// GetSubmission returns a submission without its comments.
func (c *Client) GetSubmission(ctx context.Context, id string) (*types.Submission, error) {
	thread, err := c.fetchThread(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	return thread.Submission, nil
}
