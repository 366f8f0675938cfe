package graw

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/jamesprial/go-reddit-listings/internal"
	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// flairPageSize is the page size requested from the flair list endpoint.
const flairPageSize = 1000

// listing walks forward from start when it is set, otherwise backward from
// the newest entity.
func (c *Client) listing(ctx context.Context, endpoint, resource, start string, opts types.ListingOptions) ([]types.Entity, error) {
	if start != "" {
		if err := c.validator.ValidateFullname("start", start); err != nil && !isModActionID(start) {
			return nil, err
		}
		return c.paginator.Forward(ctx, endpoint, resource, start, opts)
	}
	return c.paginator.Backward(ctx, endpoint, resource, "", opts)
}

// isModActionID reports whether id is a moderation log cursor, which is not
// a base36 fullname.
func isModActionID(id string) bool {
	return strings.HasPrefix(id, "ModAction_")
}

// entitiesOf keeps the entities of type T, preserving order.
func entitiesOf[T types.Entity](entities []types.Entity) []T {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// GetComments returns the recent comments of a subreddit, oldest first.
//
// With start set to a comment fullname it returns the comments posted after
// it. If start has aged out of the listing it returns everything the API
// still lists down to start. With no start it returns the newest
// Config.ListingLimit comments. subreddit may join several names with "+".
func (c *Client) GetComments(ctx context.Context, subreddit, start string) ([]*types.Comment, error) {
	if err := c.validator.ValidateSubredditList(subreddit); err != nil {
		return nil, err
	}
	entities, err := c.listing(ctx, internal.EndpointComments, subreddit, start, types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Comment](entities), nil
}

// GetSubmissions returns the recent submissions of a subreddit, oldest first.
// start behaves as in GetComments.
func (c *Client) GetSubmissions(ctx context.Context, subreddit, start string) ([]*types.Submission, error) {
	if err := c.validator.ValidateSubredditList(subreddit); err != nil {
		return nil, err
	}
	entities, err := c.listing(ctx, internal.EndpointSubmissions, subreddit, start, types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Submission](entities), nil
}

// userListing resolves the account name and fetches a user-scoped listing.
// A missing account is reported as *errors.UserNotFoundError.
func (c *Client) userListing(ctx context.Context, endpoint, user, start string, limit int) ([]types.Entity, error) {
	if user == "" {
		if c.config.Username == "" {
			return nil, &pkgerrs.ConfigError{Field: "Username", Message: "no user given and no username configured"}
		}
		user = c.config.Username
	}
	if err := c.validator.ValidateUsername(user); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateLimit(limit); err != nil {
		return nil, err
	}
	return c.listing(ctx, endpoint, user, start, types.ListingOptions{Limit: limit})
}

// GetUserOverview returns the recent comments and submissions of user.
// An empty user selects the configured account. limit caps a backward fetch;
// zero means the client's listing limit.
func (c *Client) GetUserOverview(ctx context.Context, user, start string, limit int) ([]types.Entity, error) {
	return c.userListing(ctx, internal.EndpointOverview, user, start, limit)
}

// GetUserComments returns the recent comments of user.
func (c *Client) GetUserComments(ctx context.Context, user, start string, limit int) ([]*types.Comment, error) {
	entities, err := c.userListing(ctx, internal.EndpointUserComments, user, start, limit)
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Comment](entities), nil
}

// GetUserSubmitted returns the recent submissions of user.
func (c *Client) GetUserSubmitted(ctx context.Context, user, start string, limit int) ([]*types.Submission, error) {
	entities, err := c.userListing(ctx, internal.EndpointUserSubmitted, user, start, limit)
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Submission](entities), nil
}

// GetModLog returns the moderation log of a subreddit. Log entry ids are not
// base36, so a backward fetch always runs to the listing limit.
func (c *Client) GetModLog(ctx context.Context, subreddit, start string) ([]*types.ModAction, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}
	entities, err := c.listing(ctx, internal.EndpointModLog, subreddit, start, types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.ModAction](entities), nil
}

// GetInbox returns the authenticated account's inbox. It mixes messages
// with comment replies.
func (c *Client) GetInbox(ctx context.Context, start string) ([]types.Entity, error) {
	return c.listing(ctx, internal.EndpointInbox, "", start, types.ListingOptions{})
}

// GetSent returns the messages sent by the authenticated account.
func (c *Client) GetSent(ctx context.Context, start string) ([]*types.Message, error) {
	entities, err := c.listing(ctx, internal.EndpointSent, "", start, types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Message](entities), nil
}

// byLastActivity orders modmail conversations by their most recent message.
func byLastActivity(a, b types.Entity) int {
	return cmp.Compare(lastActivity(a), lastActivity(b))
}

func lastActivity(e types.Entity) float64 {
	if m, ok := e.(*types.Message); ok {
		return m.LastActivity()
	}
	return 0
}

// GetModmail returns the modmail conversations of a subreddit ordered by the
// time of their latest reply.
func (c *Client) GetModmail(ctx context.Context, subreddit, start string, limit int) ([]*types.Message, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateLimit(limit); err != nil {
		return nil, err
	}
	entities, err := c.listing(ctx, internal.EndpointModmail, subreddit, start, types.ListingOptions{Limit: limit, Sort: byLastActivity})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Message](entities), nil
}

// singleMessage unwraps a one-item message listing.
func singleMessage(op string, entities []types.Entity) (*types.Message, error) {
	if len(entities) > 1 {
		return nil, &pkgerrs.ParseError{Operation: op, Message: fmt.Sprintf("expected a single message, got %d", len(entities))}
	}
	if len(entities) == 0 {
		return nil, &pkgerrs.ParseError{Operation: op, Message: "message not found"}
	}
	m, ok := entities[0].(*types.Message)
	if !ok {
		return nil, &pkgerrs.ParseError{Operation: op, Message: fmt.Sprintf("expected a message, got %s", entities[0].GetKind())}
	}
	return m, nil
}

// GetMessage returns a private message conversation by its id. Replies are
// carried in the message's Replies.
func (c *Client) GetMessage(ctx context.Context, id string) (*types.Message, error) {
	if err := c.validator.ValidateThingID("id", id); err != nil {
		return nil, err
	}
	entities, err := c.paginator.Forward(ctx, internal.EndpointMessage, id, "", types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return singleMessage(internal.EndpointMessage, entities)
}

// GetModmailMessage returns a modmail conversation through the subreddit's
// message path, which returns every reply when GetMessage does not.
func (c *Client) GetModmailMessage(ctx context.Context, id, subreddit string) (*types.Message, error) {
	if err := c.validator.ValidateThingID("id", id); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}

	listing, err := c.api.FetchListing(ctx, internal.EndpointModmailThread, url.Values{}, subreddit, id)
	if err != nil {
		return nil, err
	}
	entities := c.factory.BuildTree(listing.Children)
	slices.Reverse(entities)
	return singleMessage(internal.EndpointModmailThread, entities)
}

// GetSubredditsSubscribed returns the subreddits the account subscribes to.
func (c *Client) GetSubredditsSubscribed(ctx context.Context) ([]*types.Subreddit, error) {
	entities, err := c.paginator.Backward(ctx, internal.EndpointMySubs, "", "", types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Subreddit](entities), nil
}

// GetSubredditsModerated returns the subreddits the account moderates.
func (c *Client) GetSubredditsModerated(ctx context.Context) ([]*types.Subreddit, error) {
	entities, err := c.paginator.Backward(ctx, internal.EndpointMyMods, "", "", types.ListingOptions{})
	if err != nil {
		return nil, err
	}
	return entitiesOf[*types.Subreddit](entities), nil
}

// flairPage is one page of the flair list. It is not a Listing: rows are
// plain objects and the cursor is "next".
type flairPage struct {
	Users []types.FlairEntry `json:"users"`
	Next  *string            `json:"next"`
}

// GetFlairList returns the user flair assignments of a subreddit, following
// the "next" cursor until the API stops returning one.
func (c *Client) GetFlairList(ctx context.Context, subreddit string) ([]types.FlairEntry, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}

	var entries []types.FlairEntry
	after := ""
	for {
		params := url.Values{}
		params.Set("after", after)
		params.Set("limit", strconv.Itoa(flairPageSize))

		var page flairPage
		if err := c.api.Call(ctx, internal.EndpointFlairList, params, &page, subreddit); err != nil {
			return nil, err
		}
		entries = append(entries, page.Users...)

		if page.Next == nil || *page.Next == "" || *page.Next == after {
			break
		}
		after = *page.Next
	}
	return entries, nil
}

// GetBanned returns the banned users of a subreddit.
func (c *Client) GetBanned(ctx context.Context, subreddit string) ([]*types.Ban, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Children []json.RawMessage `json:"children"`
		} `json:"data"`
	}
	if err := c.api.Call(ctx, internal.EndpointBanned, url.Values{}, &resp, subreddit); err != nil {
		return nil, err
	}

	bans := make([]*types.Ban, 0, len(resp.Data.Children))
	for _, record := range resp.Data.Children {
		ban, err := internal.NewBan(record, subreddit)
		if err != nil {
			return nil, err
		}
		bans = append(bans, ban)
	}
	return bans, nil
}
