package graw

import (
	"github.com/jamesprial/go-reddit-listings/internal"
	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// CommentTree provides utility methods for working with comment trees.
type CommentTree interface {
	Flatten() []*types.Comment
	Filter(func(*types.Comment) bool) []*types.Comment
	Find(func(*types.Comment) bool) *types.Comment
	GetByID(string) *types.Comment
	GetByFullname(string) *types.Comment
	GetByAuthor(string) []*types.Comment
	GetTopLevel() []*types.Comment
	GetDepth() int
	Count() int
	Placeholders() []*types.More
	Walk(func(*types.Comment))
	WalkEntities(func(types.Entity))
}

// NewCommentTree creates a new CommentTree over a thread's top-level
// entities, usually Thread.Comments.
func NewCommentTree(roots []types.Entity) CommentTree {
	return internal.NewCommentTree(roots)
}
