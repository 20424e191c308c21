// Package view projects session state into the typed view models the shell
// renders. Every function here is pure: the same state and clock reading
// always produce an identical value, and user text only ever travels as a
// field value.
package view

import "time"

// Page names the screen a view belongs to.
type Page string

const (
	PageFeed          Page = "feed"
	PagePost          Page = "post"
	PageSearch        Page = "search"
	PageProfile       Page = "profile"
	PageNotifications Page = "notifications"
)

// UserBadge is the header's current-user chip.
type UserBadge struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Online bool   `json:"online"`
}

// AuthorLine is the author row of a post card or comment.
type AuthorLine struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// PostCard is one post as rendered in any list.
type PostCard struct {
	ID       uint       `json:"id"`
	Author   AuthorLine `json:"author"`
	Content  string     `json:"content"`
	ImageURL string     `json:"image_url,omitempty"`
	Posted   string     `json:"posted"`
	Edited   bool       `json:"edited"`
	Likes    int        `json:"likes"`
	Liked    bool       `json:"liked"`
	Comments int        `json:"comments"`
	Shares   int        `json:"shares"`
	IsOwner  bool       `json:"is_owner"`
	// Actions lists what the current user may dispatch for this post.
	Actions []string `json:"actions"`
}

// CommentView is one comment in a post detail.
type CommentView struct {
	ID      uint       `json:"id"`
	Author  AuthorLine `json:"author"`
	Content string     `json:"content"`
	Posted  string     `json:"posted"`
}

// FeedView is the home page.
type FeedView struct {
	Page   Page       `json:"page"`
	Header Header     `json:"header"`
	Posts  []PostCard `json:"posts"`
	Empty  bool       `json:"empty"`
	// HasMore drives the infinite-scroll sentinel.
	HasMore bool `json:"has_more"`
}

// Header is shared chrome on every page.
type Header struct {
	User   UserBadge `json:"user"`
	Unread int       `json:"unread"`
}

// PostDetailView is a single post with its comments.
type PostDetailView struct {
	Page     Page          `json:"page"`
	Header   Header        `json:"header"`
	Post     PostCard      `json:"post"`
	Comments []CommentView `json:"comments"`
}

// SearchView is the filtered feed.
type SearchView struct {
	Page    Page       `json:"page"`
	Header  Header     `json:"header"`
	Query   string     `json:"query"`
	Results []PostCard `json:"results"`
	Empty   bool       `json:"empty"`
}

// ProfileView is the current user's page.
type ProfileView struct {
	Page       Page       `json:"page"`
	Header     Header     `json:"header"`
	User       UserBadge  `json:"user"`
	PostCount  int        `json:"post_count"`
	TotalLikes int        `json:"total_likes"`
	Posts      []PostCard `json:"posts"`
}

// NotificationItem is one row of the notification panel.
type NotificationItem struct {
	ID      uint       `json:"id"`
	Actor   AuthorLine `json:"actor"`
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	Read    bool       `json:"read"`
	Posted  string     `json:"posted"`
}

// NotificationPanel is the dropdown list of notifications.
type NotificationPanel struct {
	Page   Page               `json:"page"`
	Header Header             `json:"header"`
	Items  []NotificationItem `json:"items"`
}

// RelativeTime renders t relative to now the way the feed shows timestamps.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return formatUnit(int(d/time.Minute), "m")
	case d < 24*time.Hour:
		return formatUnit(int(d/time.Hour), "h")
	case d < 7*24*time.Hour:
		return formatUnit(int(d/(24*time.Hour)), "d")
	default:
		return t.Format("Jan 2, 2006")
	}
}
