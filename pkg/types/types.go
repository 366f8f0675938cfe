package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags used by the Reddit API to identify the type of a Thing.
const (
	KindComment   = "t1"
	KindAccount   = "t2"
	KindLink      = "t3"
	KindMessage   = "t4"
	KindSubreddit = "t5"
	KindMore      = "more"
	KindModAction = "modaction"
	KindWikiPage  = "wikipage"
	KindBan       = "ban"
	KindListing   = "Listing"
)

// Listing bounds shared by the paginators.
const (
	// MaxListingSize is the hard ceiling on the number of entities any listing fetch returns.
	MaxListingSize = 2000
	// DefaultListingBatch is the number of items requested per listing page.
	DefaultListingBatch = 100
	// DefaultListingLimit is the default total number of items fetched per listing.
	DefaultListingLimit = 1500
	// DefaultMoreChildrenChunk is the number of hidden comment ids requested per morechildren call.
	DefaultMoreChildrenChunk = 2
)

// MalformedID is the placeholder id the API sometimes returns instead of a real one.
const MalformedID = "_"

// RedditObject defines the common behavior for all Reddit API objects like
// Posts, Comments, and Subreddits.
type RedditObject interface {
	GetID() string
	GetName() string
}

// Entity is a classified Thing. The set of implementations is closed:
// *Comment, *Submission, *Message, *Subreddit, *ModAction, *WikiPage, *More and *Ban.
type Entity interface {
	RedditObject
	GetKind() string
}

// ThingData holds the common fields for Reddit objects.
// It can be embedded into specific types like Submission and Comment.
type ThingData struct {
	ID   string `json:"id"`   // ID (without prefix)
	Name string `json:"name"` // Full name (e.g., "t3_abc123")
}

// GetID returns the object's ID.
func (td ThingData) GetID() string {
	return td.ID
}

// GetName returns the object's full name.
func (td ThingData) GetName() string {
	return td.Name
}

// Thing is the raw tagged record returned by the API. Data is decoded into a
// concrete type by the thing factory.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Created is an embeddable struct for things that have a creation time.
type Created struct {
	CreatedUTC float64 `json:"created_utc"`
}

// Edited represents a field that can be a boolean or a timestamp.
// If IsEdited is true and Timestamp is 0, it was an old edit marked as `true`.
// If IsEdited is true and Timestamp is non-zero, it's a modern edit with a timestamp.
// If IsEdited is false, the item was not edited.
type Edited struct {
	IsEdited  bool
	Timestamp float64
}

// UnmarshalJSON implements json.Unmarshaler to handle mixed types for the "edited" field.
func (e *Edited) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(string(data))
	switch s {
	case "false", "null":
		e.IsEdited = false
		e.Timestamp = 0
		return nil
	case "true":
		e.IsEdited = true
		e.Timestamp = 0
		return nil
	}

	var timestamp float64
	if err := json.Unmarshal(data, &timestamp); err == nil {
		e.IsEdited = true
		e.Timestamp = timestamp
		return nil
	}

	return fmt.Errorf("unrecognized type for 'edited' field: %s", string(data))
}

// User is a reference to an account found in a user field such as "author".
// Pseudo is set for names that do not denote a real account, which is the case
// for modmail senders shown as "#subreddit" and for missing names.
type User struct {
	Name   string
	Pseudo bool
}

// NewUser builds a User reference for name.
func NewUser(name string) *User {
	return &User{Name: name, Pseudo: name == "" || strings.HasPrefix(name, "#")}
}

// UnmarshalJSON decodes a user reference from its JSON string form. Other
// values, such as the boolean "banned_by" of spam-filtered things, decode to a
// nameless pseudo user so the enclosing record still decodes. An object with
// a "name" field is accepted as well.
func (u *User) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*u = *NewUser(name)
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Name != "" {
		*u = *NewUser(obj.Name)
		return nil
	}

	*u = User{Pseudo: true}
	return nil
}

// MarshalJSON encodes the user reference back to its name.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Name)
}

func (u *User) String() string {
	if u == nil {
		return ""
	}
	return u.Name
}

// ListingData contains the data for a Listing, which is used for pagination.
type ListingData struct {
	BeforeFullname string   `json:"before"` // Reddit fullname for pagination (previous page)
	AfterFullname  string   `json:"after"`  // Reddit fullname for pagination (next page)
	Modhash        string   `json:"modhash"`
	Children       []*Thing `json:"children"` // Raw Things with kind+data, parsed by caller
}

// Submission is a link or self post, without its comments.
type Submission struct {
	ThingData
	Created
	Author            *User   `json:"author"`
	BannedBy          *User   `json:"banned_by"`
	ApprovedBy        *User   `json:"approved_by"`
	Domain            string  `json:"domain"`
	Subreddit         string  `json:"subreddit"`
	SelfText          string  `json:"selftext"`
	Title             string  `json:"title"`
	LinkFlairCSSClass *string `json:"link_flair_css_class"`
	IsSelf            bool    `json:"is_self"`
	Permalink         string  `json:"permalink"`
	URL               string  `json:"url"`
	NumReports        *int    `json:"num_reports"`
	NumComments       int     `json:"num_comments"`
	Score             int     `json:"score"`
	Distinguished     *string `json:"distinguished"`
}

// GetKind returns KindLink.
func (*Submission) GetKind() string { return KindLink }

// Comment is a single comment. Replies holds the child Comment and More
// entities; it is the only field mutated after construction.
type Comment struct {
	ThingData
	Created
	Author     *User    `json:"author"`
	LinkAuthor *User    `json:"link_author"`
	BannedBy   *User    `json:"banned_by"`
	ApprovedBy *User    `json:"approved_by"`
	Body       string   `json:"body"`
	Edited     Edited   `json:"edited"`
	NumReports *int     `json:"num_reports"`
	Subreddit  string   `json:"subreddit"`
	LinkID     string   `json:"link_id"`
	LinkTitle  string   `json:"link_title"`
	ParentID   string   `json:"parent_id"`
	Score      int      `json:"score"`
	Replies    []Entity `json:"-"`
}

// GetKind returns KindComment.
func (*Comment) GetKind() string { return KindComment }

// Children returns the replies that are comments, skipping any placeholders.
func (c *Comment) Children() []*Comment {
	out := make([]*Comment, 0, len(c.Replies))
	for _, r := range c.Replies {
		if rc, ok := r.(*Comment); ok {
			out = append(out, rc)
		}
	}
	return out
}

// More is a placeholder for children that were not returned inline.
type More struct {
	ThingData
	Count    int      `json:"count"`
	ParentID string   `json:"parent_id"`
	Children []string `json:"children"`
}

// GetKind returns KindMore.
func (*More) GetKind() string { return KindMore }

// Message is a private message or modmail message. Replies holds the rest of
// the conversation when the API returns it inline.
type Message struct {
	ThingData
	Created
	Author           *User    `json:"author"`
	Dest             *User    `json:"dest"`
	Body             string   `json:"body"`
	BodyHTML         string   `json:"body_html"`
	WasComment       bool     `json:"was_comment"`
	FirstMessage     *int64   `json:"first_message"`
	FirstMessageName *string  `json:"first_message_name"`
	Subreddit        *string  `json:"subreddit"`
	ParentID         *string  `json:"parent_id"`
	Context          string   `json:"context"`
	Subject          string   `json:"subject"`
	Replies          []Entity `json:"-"`
}

// GetKind returns KindMessage.
func (*Message) GetKind() string { return KindMessage }

// LastActivity returns the creation time of the newest reply, or of the
// message itself when it has none.
func (m *Message) LastActivity() float64 {
	for i := len(m.Replies) - 1; i >= 0; i-- {
		if r, ok := m.Replies[i].(*Message); ok {
			return r.CreatedUTC
		}
	}
	return m.CreatedUTC
}

// Subreddit contains the data for a subreddit.
type Subreddit struct {
	ThingData
	Created
	HeaderTitle       *string `json:"header_title"`
	HeaderImg         *string `json:"header_img"`
	Title             string  `json:"title"`
	AccountsActive    int     `json:"accounts_active"`
	Over18            bool    `json:"over18"`
	Subscribers       int64   `json:"subscribers"`
	PublicDescription string  `json:"public_description"`
	DisplayName       string  `json:"display_name"`
	Description       string  `json:"description"`
}

// GetKind returns KindSubreddit.
func (*Subreddit) GetKind() string { return KindSubreddit }

// ModAction is a moderation log entry. Its ids are not base36, so Name is
// set to ID to give it a usable cursor.
type ModAction struct {
	ThingData
	Created
	Mod            *User  `json:"mod"`
	Description    string `json:"description"`
	Subreddit      string `json:"subreddit"`
	Details        string `json:"details"`
	Action         string `json:"action"`
	TargetFullname string `json:"target_fullname"`
}

// GetKind returns KindModAction.
func (*ModAction) GetKind() string { return KindModAction }

// WikiPage is one revision of a wiki page.
type WikiPage struct {
	ThingData
	MayRevise    bool    `json:"may_revise"`
	RevisionDate float64 `json:"revision_date"`
	ContentHTML  string  `json:"content_html"`
	ContentMD    string  `json:"content_md"`
	RevisionBy   *User   `json:"-"`
}

// GetKind returns KindWikiPage.
func (*WikiPage) GetKind() string { return KindWikiPage }

// Ban is an entry of a subreddit's banned users list.
type Ban struct {
	ThingData
	User      *User  `json:"user"`
	Note      string `json:"note"`
	Subreddit string `json:"subreddit"`
}

// GetKind returns KindBan.
func (*Ban) GetKind() string { return KindBan }

// Thread is a submission together with its comment tree.
type Thread struct {
	Submission *Submission
	Comments   []Entity
}

// TopLevel returns the thread's top-level comments.
func (t *Thread) TopLevel() []*Comment {
	out := make([]*Comment, 0, len(t.Comments))
	for _, e := range t.Comments {
		if c, ok := e.(*Comment); ok {
			out = append(out, c)
		}
	}
	return out
}

// ListingOptions tunes a listing fetch.
type ListingOptions struct {
	// Limit caps the number of entities returned. 0 means the client's listing limit.
	Limit int
	// Sort, when set, orders the result after it has been fetched.
	Sort func(a, b Entity) int
}

// SubmitOptions tunes Submit.
type SubmitOptions struct {
	// Distinguish marks the new submission as a moderator post.
	Distinguish bool
	// SendReplies sends replies to the author's inbox.
	SendReplies bool
}

// FlairEntry is one row of a subreddit's user flair list.
type FlairEntry struct {
	User          string `json:"user"`
	FlairText     string `json:"flair_text"`
	FlairCSSClass string `json:"flair_css_class"`
}
