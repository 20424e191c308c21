package view

import (
	"strconv"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/repository"
)

// Action names a post card can offer.
const (
	ActionLike    = "like"
	ActionComment = "comment"
	ActionShare   = "share"
	ActionReport  = "report"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
)

func formatUnit(n int, unit string) string {
	return strconv.Itoa(n) + unit + " ago"
}

func header(st repository.State) Header {
	unread := 0
	for _, n := range st.Notifications {
		if !n.Read {
			unread++
		}
	}
	return Header{User: badge(st.User), Unread: unread}
}

func badge(u models.User) UserBadge {
	return UserBadge{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Online: u.Online}
}

func authorLine(a models.Author) AuthorLine {
	return AuthorLine{ID: a.ID, Name: a.Name, Avatar: a.Avatar}
}

// Card projects one post for the given viewer.
func Card(p models.Post, viewerID uint, now time.Time) PostCard {
	owner := p.OwnedBy(viewerID)
	actions := []string{ActionLike, ActionComment, ActionShare}
	if owner {
		actions = append(actions, ActionEdit, ActionDelete)
	} else {
		actions = append(actions, ActionReport)
	}
	return PostCard{
		ID:       p.ID,
		Author:   authorLine(p.Author),
		Content:  p.Content,
		ImageURL: p.ImageURL,
		Posted:   RelativeTime(p.CreatedAt, now),
		Edited:   !p.UpdatedAt.IsZero() && p.UpdatedAt.After(p.CreatedAt),
		Likes:    p.LikesCount,
		Liked:    p.Liked,
		Comments: p.CommentsCount,
		Shares:   p.SharesCount,
		IsOwner:  owner,
		Actions:  actions,
	}
}

func cards(posts []models.Post, viewerID uint, now time.Time) []PostCard {
	out := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		out = append(out, Card(p, viewerID, now))
	}
	return out
}

// Feed projects the home feed.
func Feed(st repository.State, now time.Time) FeedView {
	return FeedView{
		Page:    PageFeed,
		Header:  header(st),
		Posts:   cards(st.Posts, st.User.ID, now),
		Empty:   len(st.Posts) == 0,
		HasMore: st.HasMore,
	}
}

// Comment projects one comment.
func Comment(c models.Comment, now time.Time) CommentView {
	return CommentView{
		ID:      c.ID,
		Author:  authorLine(c.Author),
		Content: c.Content,
		Posted:  RelativeTime(c.CreatedAt, now),
	}
}

// PostDetail projects a single post and its comments.
func PostDetail(st repository.State, postID uint, now time.Time) (PostDetailView, error) {
	for _, p := range st.Posts {
		if p.ID != postID {
			continue
		}
		comments := st.Comments[postID]
		items := make([]CommentView, 0, len(comments))
		for _, c := range comments {
			items = append(items, Comment(c, now))
		}
		return PostDetailView{
			Page:     PagePost,
			Header:   header(st),
			Post:     Card(p, st.User.ID, now),
			Comments: items,
		}, nil
	}
	return PostDetailView{}, models.NewNotFoundError("Post", postID)
}

// Search projects an already filtered, order-preserved result list.
func Search(st repository.State, query string, results []models.Post, now time.Time) SearchView {
	return SearchView{
		Page:    PageSearch,
		Header:  header(st),
		Query:   query,
		Results: cards(results, st.User.ID, now),
		Empty:   len(results) == 0,
	}
}

// Profile projects the current user's own posts.
func Profile(st repository.State, now time.Time) ProfileView {
	var own []models.Post
	likes := 0
	for _, p := range st.Posts {
		if p.OwnedBy(st.User.ID) {
			own = append(own, p)
			likes += p.LikesCount
		}
	}
	return ProfileView{
		Page:       PageProfile,
		Header:     header(st),
		User:       badge(st.User),
		PostCount:  len(own),
		TotalLikes: likes,
		Posts:      cards(own, st.User.ID, now),
	}
}

// Notifications projects the notification panel.
func Notifications(st repository.State, now time.Time) NotificationPanel {
	items := make([]NotificationItem, 0, len(st.Notifications))
	for _, n := range st.Notifications {
		items = append(items, NotificationItem{
			ID:      n.ID,
			Actor:   authorLine(n.Actor),
			Kind:    string(n.Kind),
			Message: n.Message(),
			Read:    n.Read,
			Posted:  RelativeTime(n.CreatedAt, now),
		})
	}
	return NotificationPanel{
		Page:   PageNotifications,
		Header: header(st),
		Items:  items,
	}
}
