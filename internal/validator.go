package internal

import (
	"fmt"
	"net/url"
	"strings"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/validation"
)

const (
	// Subreddit name constraints
	minSubredditLength = 3
	maxSubredditLength = 21

	// maxMoreChildrenIDs is the most ids morechildren accepts in one call.
	maxMoreChildrenIDs = 100

	// User agent constraints
	maxUserAgentLength = 256
)

// RequiredSettings lists the form fields site_admin rejects an update without.
var RequiredSettings = []string{
	"allow_top", "comment_score_hide_mins", "css_on_cname", "description",
	"exclude_banned_modqueue", "header-title", "lang", "link_type", "name",
	"over_18", "public_description", "public_traffic", "show_cname_sidebar",
	"show_media", "spam_comments", "spam_links", "spam_selfposts", "sr",
	"submit_link_label", "submit_text", "submit_text_label", "title", "type",
	"wiki_edit_age", "wiki_edit_karma", "wikimode",
}

// Validator provides validation operations for Reddit API parameters.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSubredditName checks if a subreddit name is valid according to Reddit's naming rules.
// Returns an error if the name is invalid.
func (v *Validator) ValidateSubredditName(name string) error {
	if name == "" {
		return &pkgerrs.ConfigError{Field: "subreddit", Message: "subreddit name cannot be empty"}
	}
	if len(name) < minSubredditLength {
		return &pkgerrs.ConfigError{Field: "subreddit", Message: fmt.Sprintf("subreddit name must be at least %d characters", minSubredditLength)}
	}
	if len(name) > maxSubredditLength {
		return &pkgerrs.ConfigError{Field: "subreddit", Message: fmt.Sprintf("subreddit name cannot exceed %d characters", maxSubredditLength)}
	}
	if name[0] == '_' {
		return &pkgerrs.ConfigError{Field: "subreddit", Message: "subreddit name cannot start with underscore"}
	}
	for i, ch := range name {
		if !(ch >= 'a' && ch <= 'z') && !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') && ch != '_' {
			return &pkgerrs.ConfigError{Field: "subreddit", Message: fmt.Sprintf("subreddit name contains invalid character '%c' at position %d", ch, i)}
		}
	}
	return nil
}

// ValidateSubredditList accepts a single subreddit name or several joined by
// "+", the form listing reads take for combined subreddits.
func (v *Validator) ValidateSubredditList(names string) error {
	if names == "" {
		return v.ValidateSubredditName(names)
	}
	for name := range strings.SplitSeq(names, "+") {
		if err := v.ValidateSubredditName(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUsername checks a username before it is placed in a request path.
func (v *Validator) ValidateUsername(name string) error {
	if name == "" {
		return &pkgerrs.ConfigError{Field: "username", Message: "username cannot be empty"}
	}
	if !validation.IsValidUsername(name) {
		return &pkgerrs.ConfigError{Field: "username", Message: fmt.Sprintf("invalid username %q", name)}
	}
	return nil
}

// ValidateFullname checks that id is a type-prefixed thing id such as "t1_abc".
func (v *Validator) ValidateFullname(field, id string) error {
	if !validation.IsValidFullname(id) {
		return &pkgerrs.ConfigError{Field: field, Message: fmt.Sprintf("invalid fullname %q", id)}
	}
	return nil
}

// ValidateThingID checks a bare base36 id.
func (v *Validator) ValidateThingID(field, id string) error {
	if !validation.IsValidBase36(id) {
		return &pkgerrs.ConfigError{Field: field, Message: fmt.Sprintf("invalid id %q", id)}
	}
	return nil
}

// ValidateLimit checks a caller supplied listing limit.
func (v *Validator) ValidateLimit(limit int) error {
	if limit < 0 {
		return &pkgerrs.ConfigError{Field: "limit", Message: "limit cannot be negative"}
	}
	return nil
}

// ValidateMoreChildrenIDs checks the ids of one morechildren call.
func (v *Validator) ValidateMoreChildrenIDs(ids []string) error {
	if len(ids) > maxMoreChildrenIDs {
		return &pkgerrs.ConfigError{Field: "children", Message: fmt.Sprintf("cannot request more than %d ids at once (got %d)", maxMoreChildrenIDs, len(ids))}
	}
	for i, id := range ids {
		if !validation.IsValidBase36(id) {
			return &pkgerrs.ConfigError{
				Field:   fmt.Sprintf("children[%d]", i),
				Message: fmt.Sprintf("invalid id %q", id),
			}
		}
	}
	return nil
}

// ValidateUserAgent validates the User-Agent string to prevent header injection attacks.
func (v *Validator) ValidateUserAgent(ua string) error {
	if len(ua) == 0 {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: "user agent cannot be empty"}
	}
	if strings.ContainsAny(ua, "\r\n") {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: "user agent cannot contain newline characters"}
	}
	if len(ua) > maxUserAgentLength {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: fmt.Sprintf("user agent too long (max %d characters)", maxUserAgentLength)}
	}
	return nil
}

// ValidateSettings checks a subreddit settings form before it is posted.
// The first missing required field is reported.
func (v *Validator) ValidateSettings(form url.Values) error {
	for _, key := range RequiredSettings {
		if _, ok := form[key]; !ok {
			return &pkgerrs.BadSettingsError{Field: key, Message: "not provided"}
		}
	}
	return nil
}
