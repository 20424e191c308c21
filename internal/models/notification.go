package models

import "time"

// NotificationKind is what another user did.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
)

// Notification is an entry in the notification panel.
type Notification struct {
	ID        uint             `json:"id"`
	Actor     Author           `json:"actor"`
	Kind      NotificationKind `json:"kind"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Message returns the sentence shown in the notification panel.
func (n *Notification) Message() string {
	switch n.Kind {
	case NotificationLike:
		return n.Actor.Name + " liked your post"
	case NotificationComment:
		return n.Actor.Name + " commented on your post"
	case NotificationFollow:
		return n.Actor.Name + " started following you"
	default:
		return n.Actor.Name + " interacted with you"
	}
}
