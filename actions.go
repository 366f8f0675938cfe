package graw

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/jamesprial/go-reddit-listings/internal"
	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// settingsRenames maps the field names returned by the settings endpoint to
// the names site_admin expects.
var settingsRenames = map[string]string{
	"default_set":       "allow_top",
	"domain_css":        "css_on_cname",
	"header_hover_text": "header-title",
	"language":          "lang",
	"content_options":   "link_type",
	"domain_sidebar":    "show_cname_sidebar",
	"subreddit_id":      "sr",
	"subreddit_type":    "type",
}

// Submit posts a self post to subreddit and returns the new submission. Only
// the fields known at submission time are set on it.
func (c *Client) Submit(ctx context.Context, subreddit, title, text string, opts types.SubmitOptions) (*types.Submission, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, &pkgerrs.ConfigError{Field: "title", Message: "title cannot be empty"}
	}

	params := url.Values{}
	params.Set("sr", subreddit)
	params.Set("kind", "self")
	params.Set("title", title)
	params.Set("text", text)
	params.Set("sendreplies", strconv.FormatBool(opts.SendReplies))

	data, err := c.api.Command(ctx, internal.EndpointSubmit, params)
	if err != nil {
		return nil, err
	}

	var submission types.Submission
	if err := json.Unmarshal(data, &submission); err != nil {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointSubmit, Message: "failed to decode new submission", Err: err}
	}
	if submission.Name == "" {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointSubmit, Message: "response holds no submission"}
	}
	submission.Subreddit = subreddit
	submission.Title = title
	submission.SelfText = text
	submission.IsSelf = true

	if opts.Distinguish {
		if err := c.Distinguish(ctx, submission.Name, true); err != nil {
			return &submission, err
		}
	}
	return &submission, nil
}

// Reply posts a comment under the thing with the given fullname and returns
// it. With distinguish set the new comment is marked as a moderator comment.
func (c *Client) Reply(ctx context.Context, parent, text string, distinguish bool) (*types.Comment, error) {
	if err := c.validator.ValidateFullname("thing_id", parent); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("thing_id", parent)
	params.Set("text", text)

	data, err := c.api.Command(ctx, internal.EndpointReply, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Things []*types.Thing `json:"things"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &pkgerrs.ParseError{Operation: internal.EndpointReply, Message: "failed to decode reply", Err: err}
		}
	}
	if len(payload.Things) == 0 {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointReply, Message: "response holds no comment"}
	}

	entity, err := c.factory.Classify(payload.Things[0])
	if err != nil {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointReply, Message: "failed to classify reply", Err: err}
	}
	comment, ok := entity.(*types.Comment)
	if !ok {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointReply, Message: fmt.Sprintf("expected a comment, got %s", entity.GetKind())}
	}

	if distinguish {
		if err := c.Distinguish(ctx, comment.Name, true); err != nil {
			return comment, err
		}
	}
	return comment, nil
}

// thingCommand calls a moderation endpoint that takes a single "id".
func (c *Client) thingCommand(ctx context.Context, endpoint, fullname string, params url.Values) error {
	if err := c.validator.ValidateFullname("id", fullname); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("id", fullname)
	return c.api.Call(ctx, endpoint, params, nil)
}

// Distinguish marks or unmarks a comment or submission as posted by a moderator.
func (c *Client) Distinguish(ctx context.Context, fullname string, on bool) error {
	how := "no"
	if on {
		how = "yes"
	}
	return c.thingCommand(ctx, internal.EndpointDistinguish, fullname, url.Values{"how": {how}})
}

// Remove removes a comment or submission without marking it as spam.
func (c *Client) Remove(ctx context.Context, fullname string) error {
	return c.thingCommand(ctx, internal.EndpointRemove, fullname, url.Values{"spam": {"false"}})
}

// Report reports a comment or submission to the subreddit's moderators.
func (c *Client) Report(ctx context.Context, fullname string) error {
	return c.thingCommand(ctx, internal.EndpointReport, fullname, nil)
}

// Ban bans user from subreddit with the given note.
func (c *Client) Ban(ctx context.Context, subreddit, user, note string) error {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return err
	}
	if err := c.validator.ValidateUsername(user); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("r", subreddit)
	params.Set("name", user)
	params.Set("note", note)
	return c.api.Call(ctx, internal.EndpointBan, params, nil)
}

// Unban lifts a ban of user from subreddit.
func (c *Client) Unban(ctx context.Context, subreddit, user string) error {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return err
	}
	if err := c.validator.ValidateUsername(user); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("r", subreddit)
	params.Set("name", user)
	return c.api.Call(ctx, internal.EndpointUnban, params, nil)
}

// Compose sends a private message. Addressing "#subreddit" sends modmail.
func (c *Client) Compose(ctx context.Context, to, subject, text string) error {
	if to == "" {
		return &pkgerrs.ConfigError{Field: "to", Message: "recipient cannot be empty"}
	}
	if name, ok := strings.CutPrefix(to, "#"); ok {
		if err := c.validator.ValidateSubredditName(name); err != nil {
			return err
		}
	} else if err := c.validator.ValidateUsername(to); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("to", to)
	params.Set("subject", subject)
	params.Set("text", text)
	_, err := c.api.Command(ctx, internal.EndpointCompose, params)
	return err
}

// WikiWrite replaces the content of a wiki page. reason may be empty.
func (c *Client) WikiWrite(ctx context.Context, subreddit, page, content, reason string) error {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return err
	}
	if page == "" {
		return &pkgerrs.ConfigError{Field: "page", Message: "page cannot be empty"}
	}

	params := url.Values{}
	params.Set("page", page)
	params.Set("content", content)
	params.Set("reason", reason)
	return c.api.Call(ctx, internal.EndpointWikiWrite, params, nil, subreddit)
}

// WikiGet returns the current revision of a wiki page.
func (c *Client) WikiGet(ctx context.Context, subreddit, page string) (*types.WikiPage, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}
	if page == "" {
		return nil, &pkgerrs.ConfigError{Field: "page", Message: "page cannot be empty"}
	}

	var thing types.Thing
	if err := c.api.Call(ctx, internal.EndpointWikiPage, url.Values{}, &thing, subreddit, page); err != nil {
		return nil, err
	}
	return classifyAs[*types.WikiPage](c.factory, internal.EndpointWikiPage, &thing)
}

// GetSubredditAbout returns a subreddit's public description, including its
// sidebar.
func (c *Client) GetSubredditAbout(ctx context.Context, subreddit string) (*types.Subreddit, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}

	var thing types.Thing
	if err := c.api.Call(ctx, internal.EndpointAbout, url.Values{}, &thing, subreddit); err != nil {
		return nil, err
	}
	return classifyAs[*types.Subreddit](c.factory, internal.EndpointAbout, &thing)
}

func classifyAs[T types.Entity](f *internal.Factory, op string, thing *types.Thing) (T, error) {
	var zero T
	entity, err := f.Classify(thing)
	if err != nil {
		return zero, &pkgerrs.ParseError{Operation: op, Message: "failed to classify response", Err: err}
	}
	t, ok := entity.(T)
	if !ok {
		return zero, &pkgerrs.ParseError{Operation: op, Message: fmt.Sprintf("unexpected kind %s", entity.GetKind())}
	}
	return t, nil
}

// GetSubredditSettings returns a subreddit's settings as reported by the
// API. The map can be edited and passed to SetSubredditSettings.
func (c *Client) GetSubredditSettings(ctx context.Context, subreddit string) (map[string]any, error) {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return nil, err
	}

	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := c.api.Call(ctx, internal.EndpointEdit, url.Values{}, &resp, subreddit); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, &pkgerrs.ParseError{Operation: internal.EndpointEdit, Message: "response holds no settings"}
	}
	return resp.Data, nil
}

// SetSubredditSettings writes a subreddit's settings. settings uses the field
// names of GetSubredditSettings; they are renamed to the names the update
// endpoint expects and nil values are sent as empty strings. settings itself
// is not modified.
//
// If a required field is missing, a *errors.BadSettingsError is returned and
// no request is made.
func (c *Client) SetSubredditSettings(ctx context.Context, subreddit string, settings map[string]any) error {
	if err := c.validator.ValidateSubredditName(subreddit); err != nil {
		return err
	}

	form := settingsForm(subreddit, settings)
	if err := c.validator.ValidateSettings(form); err != nil {
		return err
	}

	_, err := c.api.Command(ctx, internal.EndpointSiteAdmin, form)
	return err
}

// settingsForm converts settings into the site_admin form.
func settingsForm(subreddit string, settings map[string]any) url.Values {
	s := maps.Clone(settings)
	if s == nil {
		s = map[string]any{}
	}
	for from, to := range settingsRenames {
		if v, ok := s[from]; ok {
			s[to] = v
			delete(s, from)
		}
	}
	s["name"] = subreddit

	form := url.Values{}
	for k, v := range s {
		form.Set(k, formValue(v))
	}
	return form
}

func formValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
