package models

import "time"

// Post represents a post in the feed.
type Post struct {
	ID       uint   `json:"id"`
	Author   Author `json:"author"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	// LikesCount is never negative
	LikesCount int `json:"likes_count"`
	// Liked indicates whether the current user liked this post
	Liked bool `json:"liked"`
	// CommentsCount always equals the length of the post's comment sequence
	CommentsCount int       `json:"comments_count"`
	SharesCount   int       `json:"shares_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID uint) bool {
	return p.Author.ID == userID
}
