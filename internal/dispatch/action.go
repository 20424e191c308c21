// Package dispatch routes typed user actions to the feed service and
// delivers their visible completions after the simulated latency.
package dispatch

import (
	"fmt"

	"vibefeed/internal/models"
)

// ActionType names one user interaction.
type ActionType string

const (
	ActionCreatePost            ActionType = "create_post"
	ActionToggleLike            ActionType = "toggle_like"
	ActionAddComment            ActionType = "add_comment"
	ActionEditPost              ActionType = "edit_post"
	ActionDeletePost            ActionType = "delete_post"
	ActionSharePost             ActionType = "share_post"
	ActionReportPost            ActionType = "report_post"
	ActionSearch                ActionType = "search"
	ActionLoadMore              ActionType = "load_more"
	ActionMarkNotificationsRead ActionType = "mark_notifications_read"
	ActionUpdateProfile         ActionType = "update_profile"
)

// Action is the wire form of a user interaction, shared by POST /api/actions
// and websocket frames.
type Action struct {
	Type      ActionType `json:"type"`
	PostID    uint       `json:"post_id,omitempty"`
	Text      string     `json:"text,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	Confirmed bool       `json:"confirmed,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Name      string     `json:"name,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
}

// Validate checks the fields an action type needs before it reaches the service.
func (a Action) Validate() error {
	switch a.Type {
	case ActionCreatePost, ActionSearch, ActionLoadMore, ActionMarkNotificationsRead, ActionUpdateProfile:
		return nil
	case ActionToggleLike, ActionAddComment, ActionEditPost, ActionSharePost, ActionReportPost:
		if a.PostID == 0 {
			return models.NewValidationError("post_id is required")
		}
		return nil
	case ActionDeletePost:
		if a.PostID == 0 {
			return models.NewValidationError("post_id is required")
		}
		if !a.Confirmed {
			return models.NewConfirmationError("Are you sure you want to delete this post?")
		}
		return nil
	case "":
		return models.NewValidationError("action type is required")
	default:
		return models.NewValidationError(fmt.Sprintf("unknown action type %q", a.Type))
	}
}

// target is the key completions are superseded by: the post for post-scoped
// actions, the action type for feed-wide ones.
func (a Action) target() string {
	switch a.Type {
	case ActionToggleLike, ActionAddComment, ActionEditPost, ActionDeletePost, ActionSharePost, ActionReportPost:
		return fmt.Sprintf("post:%d", a.PostID)
	default:
		return string(a.Type)
	}
}
