package repository

import (
	"time"

	"vibefeed/internal/models"
)

// Tx is the mutation handle passed to Session.Update. It is only valid inside
// the Update callback.
type Tx struct {
	s      *Session
	dirty  bool
	fields map[string]interface{}
}

func (tx *Tx) touch(key string, value interface{}) {
	tx.dirty = true
	if tx.fields == nil {
		tx.fields = make(map[string]interface{})
	}
	tx.fields[key] = value
}

// Now returns the store's clock reading.
func (tx *Tx) Now() time.Time {
	return tx.s.now()
}

// CurrentUser returns the session's user.
func (tx *Tx) CurrentUser() models.User {
	return tx.s.user
}

// Post returns the live post for in-place mutation, or nil.
func (tx *Tx) Post(id uint) *models.Post {
	if i := tx.s.indexOf(id); i >= 0 {
		tx.touch("post_id", id)
		return tx.s.posts[i]
	}
	return nil
}

// Peek returns a copy of a post without marking the transaction dirty.
func (tx *Tx) Peek(id uint) (models.Post, bool) {
	if i := tx.s.indexOf(id); i >= 0 {
		return *tx.s.posts[i], true
	}
	return models.Post{}, false
}

// PrependPost assigns the next id to p and inserts it at the head of the feed.
func (tx *Tx) PrependPost(p models.Post) *models.Post {
	p.ID = tx.s.nextPostID
	tx.s.nextPostID++
	p.CommentsCount = 0
	stored := &p
	tx.s.posts = append([]*models.Post{stored}, tx.s.posts...)
	tx.touch("post_id", p.ID)
	return stored
}

// AppendNextBatch appends the next "load more" batch to the tail of the feed
// and returns how many posts were added. Zero means the supply is exhausted.
func (tx *Tx) AppendNextBatch() int {
	if len(tx.s.batches) == 0 {
		return 0
	}
	batch := tx.s.batches[0]
	tx.s.batches = tx.s.batches[1:]
	for _, p := range batch {
		p.ID = tx.s.nextPostID
		tx.s.nextPostID++
		p.CommentsCount = 0
		tx.s.posts = append(tx.s.posts, &p)
	}
	tx.touch("appended", len(batch))
	return len(batch)
}

// RemovePost deletes a post and its comments, keeping the order of the rest.
func (tx *Tx) RemovePost(id uint) bool {
	i := tx.s.indexOf(id)
	if i < 0 {
		return false
	}
	tx.s.posts = append(tx.s.posts[:i:i], tx.s.posts[i+1:]...)
	delete(tx.s.comments, id)
	tx.touch("post_id", id)
	return true
}

// AppendComment adds a comment to a post with the next per-post id and keeps
// the post's comment count equal to the number of comments. It returns nil
// when the post does not exist.
func (tx *Tx) AppendComment(postID uint, author models.Author, content string) *models.Comment {
	i := tx.s.indexOf(postID)
	if i < 0 {
		return nil
	}
	c := &models.Comment{
		ID:        uint(len(tx.s.comments[postID]) + 1),
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: tx.s.now(),
	}
	tx.s.comments[postID] = append(tx.s.comments[postID], c)
	tx.s.posts[i].CommentsCount = len(tx.s.comments[postID])
	tx.touch("post_id", postID)
	return c
}

// SetProfile replaces the current user's display fields. Existing author
// snapshots are left as they are.
func (tx *Tx) SetProfile(name, avatar string) models.User {
	tx.s.user.Name = name
	if avatar != "" {
		tx.s.user.Avatar = avatar
	}
	tx.touch("user_id", tx.s.user.ID)
	return tx.s.user
}

// MarkNotificationsRead marks every notification read and returns how many changed.
func (tx *Tx) MarkNotificationsRead() int {
	changed := 0
	for _, n := range tx.s.notifications {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	if changed > 0 {
		tx.touch("marked_read", changed)
	}
	return changed
}
