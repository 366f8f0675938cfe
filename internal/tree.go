package internal

import (
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// CommentTree provides utility methods for working with comment trees. Roots
// may hold More placeholders alongside comments; only comments are yielded.
type CommentTree struct {
	Roots []types.Entity
}

// NewCommentTree creates a new CommentTree over a thread's top-level entities.
func NewCommentTree(roots []types.Entity) *CommentTree {
	return &CommentTree{Roots: roots}
}

// Flatten returns all comments in the tree as a flat slice, depth first.
func (ct *CommentTree) Flatten() []*types.Comment {
	var result []*types.Comment
	ct.Walk(func(c *types.Comment) {
		result = append(result, c)
	})
	return result
}

// Filter returns comments that match the given filter function.
func (ct *CommentTree) Filter(filterFunc func(*types.Comment) bool) []*types.Comment {
	var result []*types.Comment
	ct.Walk(func(c *types.Comment) {
		if filterFunc(c) {
			result = append(result, c)
		}
	})
	return result
}

// Find returns the first comment that matches the given condition.
func (ct *CommentTree) Find(condition func(*types.Comment) bool) *types.Comment {
	return findRecursive(ct.Roots, condition)
}

func findRecursive(entities []types.Entity, condition func(*types.Comment) bool) *types.Comment {
	for _, e := range entities {
		comment, ok := e.(*types.Comment)
		if !ok || comment == nil {
			continue
		}
		if condition(comment) {
			return comment
		}
		if found := findRecursive(comment.Replies, condition); found != nil {
			return found
		}
	}
	return nil
}

// GetByID returns a comment by its ID.
func (ct *CommentTree) GetByID(id string) *types.Comment {
	return ct.Find(func(c *types.Comment) bool {
		return c.ID == id
	})
}

// GetByFullname returns a comment by its fullname.
func (ct *CommentTree) GetByFullname(name string) *types.Comment {
	return ct.Find(func(c *types.Comment) bool {
		return c.Name == name
	})
}

// GetByAuthor returns all comments by a specific author.
func (ct *CommentTree) GetByAuthor(author string) []*types.Comment {
	return ct.Filter(func(c *types.Comment) bool {
		return c.Author != nil && c.Author.Name == author
	})
}

// GetTopLevel returns only the top-level comments.
func (ct *CommentTree) GetTopLevel() []*types.Comment {
	out := make([]*types.Comment, 0, len(ct.Roots))
	for _, e := range ct.Roots {
		if c, ok := e.(*types.Comment); ok && c != nil {
			out = append(out, c)
		}
	}
	return out
}

// GetDepth returns the maximum depth of the comment tree. A tree of only
// top-level comments has depth 0.
func (ct *CommentTree) GetDepth() int {
	return depthRecursive(ct.Roots, 0)
}

func depthRecursive(entities []types.Entity, currentDepth int) int {
	maxDepth := currentDepth
	for _, e := range entities {
		comment, ok := e.(*types.Comment)
		if !ok || comment == nil || len(comment.Replies) == 0 {
			continue
		}
		if depth := depthRecursive(comment.Replies, currentDepth+1); depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

// Count returns the total number of comments in the tree.
func (ct *CommentTree) Count() int {
	n := 0
	ct.Walk(func(*types.Comment) { n++ })
	return n
}

// Placeholders returns every More node still present in the tree.
func (ct *CommentTree) Placeholders() []*types.More {
	var result []*types.More
	ct.WalkEntities(func(e types.Entity) {
		if m, ok := e.(*types.More); ok {
			result = append(result, m)
		}
	})
	return result
}

// Walk applies a function to each comment in the tree, depth first.
func (ct *CommentTree) Walk(fn func(*types.Comment)) {
	ct.WalkEntities(func(e types.Entity) {
		if c, ok := e.(*types.Comment); ok {
			fn(c)
		}
	})
}

// WalkEntities applies fn to every node, comments and placeholders alike.
func (ct *CommentTree) WalkEntities(fn func(types.Entity)) {
	walkRecursive(ct.Roots, fn)
}

func walkRecursive(entities []types.Entity, fn func(types.Entity)) {
	for _, e := range entities {
		if e == nil {
			continue
		}
		fn(e)
		if comment, ok := e.(*types.Comment); ok && comment != nil {
			walkRecursive(comment.Replies, fn)
		}
	}
}
