package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	pkgerrs "github.com/jamesprial/go-reddit-listings/pkg/errors"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
	"github.com/jamesprial/go-reddit-listings/pkg/validation"
)

// DefaultMaxMoreRounds bounds the number of fetch rounds of one resolution.
const DefaultMaxMoreRounds = 100

// MoreFetcher fetches the things hidden behind More placeholders.
type MoreFetcher interface {
	FetchMoreChildren(ctx context.Context, linkID string, ids []string) ([]*types.Thing, error)
}

// FetchMoreChildren calls the morechildren endpoint for ids under linkID.
// Ids must be bare base36 ids, at most 100 per call; otherwise a
// *errors.ConfigError is returned and no request is made.
func (c *Client) FetchMoreChildren(ctx context.Context, linkID string, ids []string) ([]*types.Thing, error) {
	if err := c.validator.ValidateMoreChildrenIDs(ids); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateFullname("link_id", linkID); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("children", strings.Join(ids, ","))
	params.Set("link_id", linkID)

	data, err := c.Command(ctx, EndpointMoreChildren, params)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var payload struct {
		Things []*types.Thing `json:"things"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &pkgerrs.ParseError{Operation: EndpointMoreChildren, Message: "failed to decode things", Err: err}
	}
	return payload.Things, nil
}

// ResolverConfig tunes a MoreResolver. Zero values select the defaults.
type ResolverConfig struct {
	// ChunkSize is the number of ids sent per morechildren call.
	ChunkSize int
	// MaxRounds caps the fetch rounds of one Resolve call.
	MaxRounds int
	Logger    *slog.Logger
	Metrics   *Metrics
}

// MoreResolver replaces the More placeholders of a comment tree with the
// comments they stand for.
type MoreResolver struct {
	fetcher   MoreFetcher
	factory   *Factory
	chunkSize int
	maxRounds int
	logger    *slog.Logger
	metrics   *Metrics
}

// NewMoreResolver creates a resolver fetching through fetcher.
func NewMoreResolver(fetcher MoreFetcher, factory *Factory, cfg ResolverConfig) *MoreResolver {
	r := &MoreResolver{
		fetcher:   fetcher,
		factory:   factory,
		chunkSize: cfg.ChunkSize,
		maxRounds: cfg.MaxRounds,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if r.chunkSize <= 0 {
		r.chunkSize = types.DefaultMoreChildrenChunk
	}
	if r.maxRounds <= 0 {
		r.maxRounds = DefaultMaxMoreRounds
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.factory == nil {
		r.factory = NewFactory(r.logger)
	}
	return r
}

// resolution is the state of one Resolve call.
type resolution struct {
	linkID    string
	index     map[string]*types.Comment
	pending   []string
	requested map[string]bool
	logger    *slog.Logger
}

// Resolve returns root with every More placeholder replaced by the comments
// it hides. linkID is the fullname of the thread's submission; comments whose
// parent is linkID become top-level. The returned tree holds no More nodes.
//
// Fetched comments whose parent never shows up are dropped with a warning
// once a round neither attaches anything nor has ids left to fetch.
func (r *MoreResolver) Resolve(ctx context.Context, root []types.Entity, linkID string) ([]types.Entity, error) {
	res := &resolution{
		linkID:    linkID,
		index:     make(map[string]*types.Comment),
		requested: make(map[string]bool),
		logger:    r.logger,
	}
	root = res.collect(root)

	var working []types.Entity
	rounds := 0
	for len(res.pending) > 0 || len(working) > 0 {
		if rounds >= r.maxRounds {
			r.logger.Warn("more resolution stopped at round limit",
				"link_id", linkID, "rounds", rounds, "pending", len(res.pending), "unattached", len(working))
			break
		}
		rounds++

		ids := res.pending
		res.pending = nil
		for chunk := range slices.Chunk(ids, r.chunkSize) {
			things, err := r.fetcher.FetchMoreChildren(ctx, linkID, chunk)
			if err != nil {
				return nil, err
			}
			fetched := r.factory.BuildTree(things)
			if r.metrics != nil {
				r.metrics.MoreFetched.Add(float64(len(fetched)))
			}
			for _, e := range fetched {
				if validation.IsMalformed(e) {
					r.logger.Warn("malformed child entity", "link_id", linkID, "id", e.GetID(), "name", e.GetName(), "kind", e.GetKind())
				}
			}
			working = append(working, fetched...)
		}

		before := len(working)
		working, root = res.attach(working, root)
		if len(working) > 0 && len(working) == before && len(res.pending) == 0 {
			for _, e := range working {
				r.logger.Warn("dropping orphaned comment", "link_id", linkID, "name", e.GetName(), "parent_id", parentOf(e))
			}
			working = nil
		}
	}

	if r.metrics != nil {
		r.metrics.MoreRounds.Observe(float64(rounds))
	}
	return root, nil
}

// collect returns a copy of entities without its More nodes, queueing their
// children ids, and indexes every comment reached. Duplicate comments are
// dropped.
func (res *resolution) collect(entities []types.Entity) []types.Entity {
	out := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
		switch v := e.(type) {
		case *types.More:
			res.queue(v.Children)
		case *types.Comment:
			if !res.register(v) {
				continue
			}
			out = append(out, v)
		default:
			if e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// register indexes c and collects its replies. It reports false when a
// comment with the same fullname is already in the tree.
func (res *resolution) register(c *types.Comment) bool {
	if c.Name != "" {
		if _, dup := res.index[c.Name]; dup {
			return false
		}
		res.index[c.Name] = c
	}
	c.Replies = res.collect(c.Replies)
	return true
}

func (res *resolution) queue(ids []string) {
	for _, id := range ids {
		if res.requested[id] {
			continue
		}
		if !validation.IsValidBase36(id) {
			res.logger.Warn("skipping unfetchable more child", "link_id", res.linkID, "id", id)
			continue
		}
		res.requested[id] = true
		res.pending = append(res.pending, id)
	}
}

// attach grafts working-set entities onto the tree, repeating until a pass
// changes nothing so that a child fetched ahead of its parent still lands.
// It returns the entities left unattached and the updated root.
func (res *resolution) attach(working, root []types.Entity) ([]types.Entity, []types.Entity) {
	for len(working) > 0 {
		changed := false
		rest := make([]types.Entity, 0, len(working))
		for _, e := range working {
			switch v := e.(type) {
			case *types.More:
				res.queue(v.Children)
				changed = true
			case *types.Comment:
				if v.Name != "" && res.index[v.Name] != nil {
					changed = true
					continue
				}
				if v.ParentID == res.linkID {
					if res.register(v) {
						root = append(root, v)
					}
					changed = true
				} else if parent := res.index[v.ParentID]; parent != nil {
					if res.register(v) {
						parent.Replies = append(parent.Replies, v)
					}
					changed = true
				} else {
					rest = append(rest, v)
				}
			default:
				res.logger.Warn("unexpected entity in more children", "kind", e.GetKind(), "name", e.GetName())
				changed = true
			}
		}
		working = rest
		if !changed {
			break
		}
	}
	return working, root
}

func parentOf(e types.Entity) string {
	if c, ok := e.(*types.Comment); ok {
		return c.ParentID
	}
	return ""
}
