package internal

import (
	"fmt"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// CommentIterator provides an iterator for traversing comment trees.
type CommentIterator struct {
	stack         []*types.Comment
	visited       map[string]bool
	depthFirst    bool
	filterFunc    func(*types.Comment) bool
	maxDepth      int
	currentDepths map[string]int
}

// CommentIteratorOptions provides options for comment iteration.
type CommentIteratorOptions struct {
	DepthFirst bool
	FilterFunc func(*types.Comment) bool
	// MaxDepth stops descending below this depth. 0 means unlimited.
	MaxDepth int
}

// NewCommentIterator creates a new iterator for traversing a comment tree.
// More placeholders among roots are skipped.
func NewCommentIterator(roots []types.Entity, opts *CommentIteratorOptions) *CommentIterator {
	if opts == nil {
		opts = &CommentIteratorOptions{
			DepthFirst: true,
		}
	}

	comments := commentsOf(roots)
	it := &CommentIterator{
		stack:         comments,
		visited:       make(map[string]bool),
		depthFirst:    opts.DepthFirst,
		filterFunc:    opts.FilterFunc,
		maxDepth:      opts.MaxDepth,
		currentDepths: make(map[string]int),
	}

	for _, c := range it.stack {
		it.currentDepths[c.Name] = 0
	}

	if opts.DepthFirst {
		for i, j := 0, len(it.stack)-1; i < j; i, j = i+1, j-1 {
			it.stack[i], it.stack[j] = it.stack[j], it.stack[i]
		}
	}

	return it
}

func commentsOf(entities []types.Entity) []*types.Comment {
	out := make([]*types.Comment, 0, len(entities))
	for _, e := range entities {
		if c, ok := e.(*types.Comment); ok && c != nil {
			out = append(out, c)
		}
	}
	return out
}

// HasNext returns true if there are more comments to iterate through. With a
// filter set, Next may still report exhaustion when the remaining comments
// are all filtered out.
func (it *CommentIterator) HasNext() bool {
	return len(it.stack) > 0
}

// Next returns the next comment in the iteration.
func (it *CommentIterator) Next() (*types.Comment, error) {
	for len(it.stack) > 0 {
		var comment *types.Comment
		if it.depthFirst {
			comment = it.stack[len(it.stack)-1]
			it.stack = it.stack[:len(it.stack)-1]
		} else {
			comment = it.stack[0]
			it.stack = it.stack[1:]
		}

		if it.visited[comment.Name] {
			continue
		}
		it.visited[comment.Name] = true

		currentDepth := it.currentDepths[comment.Name]
		if it.maxDepth == 0 || currentDepth < it.maxDepth {
			replies := comment.Children()
			for _, reply := range replies {
				it.currentDepths[reply.Name] = currentDepth + 1
			}
			if it.depthFirst {
				for i := len(replies) - 1; i >= 0; i-- {
					it.stack = append(it.stack, replies[i])
				}
			} else {
				it.stack = append(it.stack, replies...)
			}
		}

		if it.filterFunc != nil && !it.filterFunc(comment) {
			continue
		}
		return comment, nil
	}
	return nil, fmt.Errorf("no more comments available")
}

// Depth reports the depth at which c was reached, 0 for top-level comments.
func (it *CommentIterator) Depth(c *types.Comment) int {
	return it.currentDepths[c.Name]
}
