package server

import (
	"vibefeed/internal/dispatch"
	"vibefeed/internal/featureflags"
	"vibefeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// runAction dispatches a and writes the Result with status on success.
func (s *Server) runAction(c *fiber.Ctx, a dispatch.Action, status int) error {
	if a.Type == dispatch.ActionLoadMore && !s.flag(featureflags.LoadMore) {
		return respondError(c, models.NewNotFoundError("Feature", featureflags.LoadMore))
	}
	res, err := s.dispatcher.Dispatch(c.UserContext(), a)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(res)
}

// postAction builds a post-scoped action from the :id param.
func (s *Server) postAction(c *fiber.Ctx, t dispatch.ActionType) (dispatch.Action, error) {
	id, err := s.parseID(c, "id")
	if err != nil {
		return dispatch.Action{}, err
	}
	return dispatch.Action{Type: t, PostID: id}, nil
}

func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// PostAction handles POST /api/actions with a typed action body.
func (s *Server) PostAction(c *fiber.Ctx) error {
	var a dispatch.Action
	if err := parseBody(c, &a); err != nil {
		return nil
	}
	status := fiber.StatusOK
	if a.Type == dispatch.ActionCreatePost {
		status = fiber.StatusCreated
	}
	return s.runAction(c, a, status)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.runAction(c, dispatch.Action{
		Type:     dispatch.ActionCreatePost,
		Text:     req.Content,
		ImageURL: req.ImageURL,
	}, fiber.StatusCreated)
}

// EditPost handles PUT /api/posts/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionEditPost)
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	a.Text = req.Content
	return s.runAction(c, a, fiber.StatusOK)
}

// DeletePost handles DELETE /api/posts/:id?confirm=true
func (s *Server) DeletePost(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionDeletePost)
	if err != nil {
		return nil
	}
	a.Confirmed = c.QueryBool("confirm", false)
	return s.runAction(c, a, fiber.StatusOK)
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionToggleLike)
	if err != nil {
		return nil
	}
	return s.runAction(c, a, fiber.StatusOK)
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionAddComment)
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	a.Text = req.Content
	return s.runAction(c, a, fiber.StatusCreated)
}

// SharePost handles POST /api/posts/:id/share
func (s *Server) SharePost(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionSharePost)
	if err != nil {
		return nil
	}
	return s.runAction(c, a, fiber.StatusOK)
}

// ReportPost handles POST /api/posts/:id/report
func (s *Server) ReportPost(c *fiber.Ctx) error {
	a, err := s.postAction(c, dispatch.ActionReportPost)
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	// The reason is optional, so an empty body is fine.
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	a.Reason = req.Reason
	return s.runAction(c, a, fiber.StatusAccepted)
}

// LoadMore handles POST /api/feed/more
func (s *Server) LoadMore(c *fiber.Ctx) error {
	return s.runAction(c, dispatch.Action{Type: dispatch.ActionLoadMore}, fiber.StatusOK)
}

// UpdateProfile handles PUT /api/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.runAction(c, dispatch.Action{
		Type:   dispatch.ActionUpdateProfile,
		Name:   req.Name,
		Avatar: req.Avatar,
	}, fiber.StatusOK)
}

// MarkNotificationsRead handles POST /api/notifications/read. The markers
// clear after the configured delay.
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	return s.runAction(c, dispatch.Action{Type: dispatch.ActionMarkNotificationsRead}, fiber.StatusAccepted)
}
