package server

import (
	"context"

	"vibefeed/internal/dispatch"
	"vibefeed/internal/featureflags"
	"vibefeed/internal/observability"
)

// settle runs when an action's completion becomes visible: it announces the
// completion and pushes freshly projected views to every websocket client.
func (s *Server) settle(ctx context.Context, res dispatch.Result) {
	if !s.flag(featureflags.RealtimePush) || s.hub.Len() == 0 {
		return
	}

	if err := s.hub.Publish(EventCompleted, res); err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "publish completion failed", "seq", res.Seq, "error", err)
		return
	}

	if feed, err := s.projector.Feed(ctx); err == nil {
		_ = s.hub.Publish(EventFeed, feed)
	}

	switch res.Action {
	case dispatch.ActionMarkNotificationsRead:
		if panel, err := s.projector.Notifications(ctx); err == nil {
			_ = s.hub.Publish(EventNotifications, panel)
		}
	case dispatch.ActionUpdateProfile, dispatch.ActionCreatePost, dispatch.ActionDeletePost, dispatch.ActionEditPost:
		if profile, err := s.projector.Profile(ctx); err == nil {
			_ = s.hub.Publish(EventProfile, profile)
		}
	}
}
