package models

import "time"

// Comment represents a comment on a post. IDs are unique only within the parent post.
type Comment struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
