package graw

import (
	"github.com/jamesprial/go-reddit-listings/internal"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// TraversalOrder defines the order of tree traversal.
type TraversalOrder int

const (
	// DepthFirst traverses the tree depth-first (default).
	DepthFirst TraversalOrder = iota
	// BreadthFirst traverses the tree breadth-first.
	BreadthFirst
)

// TraversalOptions provides options for comment tree traversal.
type TraversalOptions struct {
	MaxDepth   int                       // Maximum depth to descend to (0 = unlimited)
	MinScore   int                       // Minimum score for comments to include
	FilterFunc func(*types.Comment) bool // Custom filter function
	Order      TraversalOrder            // Order of traversal
}

// CommentIterator walks a comment tree one comment at a time. Comments
// rejected by the filter are skipped but their replies are still visited.
type CommentIterator struct {
	it *internal.CommentIterator
}

// NewCommentIterator creates a new iterator for traversing a comment tree.
// A nil opts walks every comment depth first.
func NewCommentIterator(roots []types.Entity, opts *TraversalOptions) *CommentIterator {
	if opts == nil {
		opts = &TraversalOptions{Order: DepthFirst}
	}

	filter := opts.FilterFunc
	if opts.MinScore != 0 {
		minScore, inner := opts.MinScore, filter
		filter = func(c *types.Comment) bool {
			if c.Score < minScore {
				return false
			}
			return inner == nil || inner(c)
		}
	}

	return &CommentIterator{it: internal.NewCommentIterator(roots, &internal.CommentIteratorOptions{
		DepthFirst: opts.Order == DepthFirst,
		FilterFunc: filter,
		MaxDepth:   opts.MaxDepth,
	})}
}

// HasNext returns true if there may be more comments to iterate through.
func (it *CommentIterator) HasNext() bool {
	return it.it.HasNext()
}

// Next returns the next comment in the iteration.
func (it *CommentIterator) Next() (*types.Comment, error) {
	return it.it.Next()
}

// Depth reports how deep c sits below the top level, 0 for top-level comments.
func (it *CommentIterator) Depth(c *types.Comment) int {
	return it.it.Depth(c)
}

// Collect returns every remaining comment.
func (it *CommentIterator) Collect() []*types.Comment {
	var out []*types.Comment
	for it.HasNext() {
		c, err := it.Next()
		if err != nil {
			break
		}
		out = append(out, c)
	}
	return out
}
