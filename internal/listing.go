package internal

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strconv"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
	"github.com/jamesprial/go-reddit-listings/pkg/validation"
)

// ListingFetcher fetches one page of a listing endpoint.
type ListingFetcher interface {
	FetchListing(ctx context.Context, name string, params url.Values, resources ...string) (*types.ListingData, error)
}

// PaginatorConfig tunes a Paginator. Zero values select the defaults.
type PaginatorConfig struct {
	// Batch is the page size requested from the API.
	Batch int
	// Limit is the default total for backward fetches.
	Limit int
	// Ceiling bounds every result. It is clamped to types.MaxListingSize.
	Ceiling int
	Logger  *slog.Logger
	Metrics *Metrics
}

// Paginator walks cursor-paginated listings in either direction. Both
// directions return entities oldest first.
type Paginator struct {
	fetcher ListingFetcher
	factory *Factory
	batch   int
	limit   int
	ceiling int
	logger  *slog.Logger
	metrics *Metrics
}

// NewPaginator creates a paginator fetching pages through fetcher.
func NewPaginator(fetcher ListingFetcher, factory *Factory, cfg PaginatorConfig) *Paginator {
	p := &Paginator{
		fetcher: fetcher,
		factory: factory,
		batch:   cfg.Batch,
		limit:   cfg.Limit,
		ceiling: cfg.Ceiling,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	if p.batch <= 0 {
		p.batch = types.DefaultListingBatch
	}
	if p.limit <= 0 {
		p.limit = types.DefaultListingLimit
	}
	if p.ceiling <= 0 || p.ceiling > types.MaxListingSize {
		p.ceiling = types.MaxListingSize
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.factory == nil {
		p.factory = NewFactory(p.logger)
	}
	return p
}

func (p *Paginator) fetch(ctx context.Context, endpoint, resource string, params url.Values) (*types.ListingData, []types.Entity, error) {
	listing, err := p.fetcher.FetchListing(ctx, endpoint, params, resource)
	if err != nil {
		return nil, nil, err
	}
	return listing, p.factory.BuildTree(listing.Children), nil
}

// Forward fetches entities newer than start, oldest first, following the
// "before" cursor. Pages are only followed while start is set and each page
// comes back full. An empty first page means start has aged out of the
// listing, in which case the result is that of Backward bounded by start.
func (p *Paginator) Forward(ctx context.Context, endpoint, resource, start string, opts types.ListingOptions) ([]types.Entity, error) {
	ceiling := p.ceiling
	if opts.Limit > 0 && opts.Limit < ceiling {
		ceiling = opts.Limit
	}

	var results []types.Entity
	cursor := start
	for first := true; ; first = false {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(p.batch))
		params.Set("before", cursor)

		listing, batch, err := p.fetch(ctx, endpoint, resource, params)
		if err != nil {
			return nil, err
		}
		p.metrics.observeListing(endpoint, "forward", len(batch))

		if first && len(listing.Children) == 0 && start != "" {
			p.logger.Info("listing cursor is stale, fetching backward", "endpoint", endpoint, "resource", resource, "cursor", start)
			return p.Backward(ctx, endpoint, resource, start, opts)
		}

		slices.Reverse(batch)
		results = append(results, batch...)

		if start == "" || len(listing.Children) < p.batch || len(batch) == 0 || len(results) >= ceiling {
			break
		}
		cursor = results[len(results)-1].GetName()
	}

	if len(results) > ceiling {
		results = results[:ceiling]
	}
	sortEntities(results, opts.Sort)
	return results, nil
}

// Backward fetches the newest entities, walking the "after" cursor into the
// past until it reaches an entity whose base36 id is at or below end's. The
// page holding that entity is still scanned in full since the API's ordering
// is not strictly monotonic. With no parseable end, it fetches up to the
// limit. The result is oldest first.
func (p *Paginator) Backward(ctx context.Context, endpoint, resource, end string, opts types.ListingOptions) ([]types.Entity, error) {
	stopID, bounded := validation.ParseFullname36(end)

	limit := opts.Limit
	if limit <= 0 {
		limit = p.limit
	}
	limit = min(limit, p.ceiling)
	batchSize := min(p.batch, limit)

	var results []types.Entity
	after := ""
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(batchSize))
		params.Set("after", after)

		listing, batch, err := p.fetch(ctx, endpoint, resource, params)
		if err != nil {
			return nil, err
		}
		p.metrics.observeListing(endpoint, "backward", len(batch))
		if len(listing.Children) == 0 {
			break
		}

		passedEnd := false
		for _, e := range batch {
			if bounded {
				if n, ok := validation.ParseID36(e.GetID()); ok && n <= stopID {
					passedEnd = true
					continue
				}
			}
			results = append(results, e)
		}

		after = listing.AfterFullname
		if passedEnd || len(results) >= limit || after == "" {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	slices.Reverse(results)
	sortEntities(results, opts.Sort)
	return results, nil
}

func sortEntities(entities []types.Entity, cmp func(a, b types.Entity) int) {
	if cmp != nil {
		slices.SortStableFunc(entities, cmp)
	}
}
