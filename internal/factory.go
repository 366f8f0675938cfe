package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// Factory turns raw API things into typed entities. It holds no state besides
// its logger, so classifying the same thing twice yields equal entities.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new factory. A nil logger discards output.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{logger: logger}
}

// Classify determines the kind of a Thing and returns the matching entity.
// Unrecognized kinds yield an error wrapping pkgerrs.ErrUnknownKind.
func (f *Factory) Classify(thing *types.Thing) (types.Entity, error) {
	if thing == nil {
		return nil, &pkgerrs.ParseError{Operation: "classify", Message: "thing is nil"}
	}

	switch thing.Kind {
	case types.KindComment:
		return f.parseComment(thing)
	case types.KindLink:
		return decodeEntity[types.Submission](thing)
	case types.KindMessage:
		return f.parseMessage(thing)
	case types.KindSubreddit:
		return decodeEntity[types.Subreddit](thing)
	case types.KindMore:
		return decodeEntity[types.More](thing)
	case types.KindModAction:
		action, err := decodeEntity[types.ModAction](thing)
		if err != nil {
			return nil, err
		}
		action.Name = action.ID
		return action, nil
	case types.KindWikiPage:
		return parseWikiPage(thing)
	case types.KindBan:
		return decodeEntity[types.Ban](thing)
	default:
		return nil, fmt.Errorf("%w: %q", pkgerrs.ErrUnknownKind, thing.Kind)
	}
}

func decodeEntity[T any](thing *types.Thing) (*T, error) {
	var v T
	if err := json.Unmarshal(thing.Data, &v); err != nil {
		return nil, &pkgerrs.ParseError{Operation: "classify", Message: fmt.Sprintf("failed to parse %s data", thing.Kind), Err: err}
	}
	return &v, nil
}

func (f *Factory) parseComment(thing *types.Thing) (*types.Comment, error) {
	comment, err := decodeEntity[types.Comment](thing)
	if err != nil {
		return nil, err
	}
	replies, err := f.inlineReplies(thing)
	if err != nil {
		return nil, err
	}
	comment.Replies = replies
	return comment, nil
}

func (f *Factory) parseMessage(thing *types.Thing) (*types.Message, error) {
	message, err := decodeEntity[types.Message](thing)
	if err != nil {
		return nil, err
	}
	replies, err := f.inlineReplies(thing)
	if err != nil {
		return nil, err
	}
	message.Replies = replies
	return message, nil
}

// inlineReplies decodes the "replies" member, which is either an empty string
// or a Listing of child things.
func (f *Factory) inlineReplies(thing *types.Thing) ([]types.Entity, error) {
	var raw struct {
		Replies json.RawMessage `json:"replies"`
	}
	if err := json.Unmarshal(thing.Data, &raw); err != nil {
		return nil, &pkgerrs.ParseError{Operation: "classify", Message: "failed to parse replies", Err: err}
	}

	trimmed := bytes.TrimSpace(raw.Replies)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}

	var listingThing types.Thing
	if err := json.Unmarshal(trimmed, &listingThing); err != nil {
		return nil, &pkgerrs.ParseError{Operation: "classify", Message: "failed to parse replies listing", Err: err}
	}
	listing, err := DecodeListing("replies", &listingThing)
	if err != nil {
		return nil, err
	}
	return f.BuildTree(listing.Children), nil
}

func parseWikiPage(thing *types.Thing) (*types.WikiPage, error) {
	page, err := decodeEntity[types.WikiPage](thing)
	if err != nil {
		return nil, err
	}

	var raw struct {
		RevisionBy *struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		} `json:"revision_by"`
	}
	if err := json.Unmarshal(thing.Data, &raw); err != nil {
		return nil, &pkgerrs.ParseError{Operation: "classify", Message: "failed to parse revision_by", Err: err}
	}
	if raw.RevisionBy != nil {
		page.RevisionBy = types.NewUser(raw.RevisionBy.Data.Name)
	}
	return page, nil
}

// BuildTree classifies each child in order. Comments carrying an inline
// replies listing get their Replies populated recursively; More placeholders
// are kept as leaves. Things of unknown kind are logged and skipped.
func (f *Factory) BuildTree(children []*types.Thing) []types.Entity {
	out := make([]types.Entity, 0, len(children))
	for _, child := range children {
		entity, err := f.Classify(child)
		if err != nil {
			kind := ""
			if child != nil {
				kind = child.Kind
			}
			f.logger.Warn("skipping thing", "kind", kind, "error", err)
			continue
		}
		out = append(out, entity)
	}
	return out
}

// ParseListing unwraps a Listing thing and classifies its children.
func (f *Factory) ParseListing(thing *types.Thing) ([]types.Entity, *types.ListingData, error) {
	listing, err := DecodeListing("listing", thing)
	if err != nil {
		return nil, nil, err
	}
	return f.BuildTree(listing.Children), listing, nil
}

// ParseThread parses the two-listing response of a thread fetch: the first
// holds the submission, the second the top-level comments.
func (f *Factory) ParseThread(response []*types.Thing) (*types.Thread, error) {
	if len(response) < 2 {
		return nil, &pkgerrs.ParseError{Operation: "thread", Message: fmt.Sprintf("expected 2 listings, got %d", len(response))}
	}

	posts, _, err := f.ParseListing(response[0])
	if err != nil {
		return nil, err
	}
	var submission *types.Submission
	for _, p := range posts {
		if s, ok := p.(*types.Submission); ok {
			submission = s
			break
		}
	}
	if submission == nil {
		return nil, &pkgerrs.ParseError{Operation: "thread", Message: "response holds no submission"}
	}

	comments, _, err := f.ParseListing(response[1])
	if err != nil {
		return nil, err
	}

	return &types.Thread{Submission: submission, Comments: comments}, nil
}

// banRecord is one row of a subreddit's banned users list. Rows are plain
// objects rather than things.
type banRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Note string `json:"note"`
}

// NewBan builds a Ban from a banned users record. The record id becomes the
// entity's fullname.
func NewBan(record json.RawMessage, subreddit string) (*types.Ban, error) {
	var rec banRecord
	if err := json.Unmarshal(record, &rec); err != nil {
		return nil, &pkgerrs.ParseError{Operation: "banned", Message: "failed to parse ban record", Err: err}
	}
	return &types.Ban{
		ThingData: types.ThingData{ID: rec.ID, Name: rec.ID},
		User:      types.NewUser(rec.Name),
		Note:      rec.Note,
		Subreddit: subreddit,
	}, nil
}
