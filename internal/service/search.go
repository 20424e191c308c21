package service

import (
	"context"
	"iter"
	"strings"

	"vibefeed/internal/models"

	"golang.org/x/text/cases"
)

// Search yields the posts whose content or author name contains query,
// ignoring case, in feed order. A blank query yields the whole feed. The
// sequence reads the feed when iteration starts, so ranging over it again
// reflects later mutations.
func (s *FeedService) Search(ctx context.Context, query string) iter.Seq[models.Post] {
	needle := FoldQuery(query)
	return func(yield func(models.Post) bool) {
		for _, p := range s.store.Posts() {
			if ctx.Err() != nil {
				return
			}
			if needle != "" && !Matches(p, needle) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Matches reports whether a post matches an already folded needle.
func Matches(p models.Post, foldedNeedle string) bool {
	// Casers keep state, so each call gets its own.
	c := cases.Fold()
	return strings.Contains(c.String(p.Content), foldedNeedle) ||
		strings.Contains(c.String(p.Author.Name), foldedNeedle)
}

// FoldQuery normalizes a raw query the way Search does.
func FoldQuery(query string) string {
	return cases.Fold().String(strings.TrimSpace(query))
}
