package server

import (
	"vibefeed/internal/featureflags"
	"vibefeed/internal/models"
	"vibefeed/internal/view"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	feed, err := s.projector.Feed(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if !s.flag(featureflags.LoadMore) {
		feed.HasMore = false
	}
	return c.JSON(feed)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.projector.PostDetail(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.feedService.ListComments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	now := s.now()
	out := make([]view.CommentView, 0, len(comments))
	for _, cm := range comments {
		out = append(out, view.Comment(cm, now))
	}
	return c.JSON(out)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.store.CurrentUser().ID
	now := s.now()
	posts := s.feedService.UserPosts(c.UserContext(), userID)
	out := make([]view.PostCard, 0, len(posts))
	for _, p := range posts {
		out = append(out, view.Card(p, viewer, now))
	}
	return c.JSON(out)
}

// GetProfile handles GET /api/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.projector.Profile(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	panel, err := s.projector.Notifications(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(panel)
}

// SearchPosts handles GET /api/search?q=...
// A blank query returns every post.
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	q := c.Query("q")

	var results []models.Post
	for p := range s.feedService.Search(ctx, q) {
		results = append(results, p)
	}
	return c.JSON(s.projector.Search(ctx, q, results))
}
