// Package repository holds the session's Entity Store: the in-memory posts,
// comments, notifications and current user. Reads return copies; the only
// way to mutate is Session.Update, which the feed service calls.
package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/observability"
	"vibefeed/internal/seed"
)

// Session is the Entity Store for one session. Construct it once and pass it
// to the service and projector; there is no package-level instance.
type Session struct {
	mu            sync.RWMutex
	user          models.User
	posts         []*models.Post // newest first
	comments      map[uint][]*models.Comment
	notifications []*models.Notification
	batches       [][]models.Post
	nextPostID    uint
	version       uint64
	now           func() time.Time
	logger        *observability.StoreLogger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession builds a store from seed data. Comment counts are derived from
// the seeded comments so the count invariant holds from the start.
func NewSession(data seed.Data, opts ...Option) *Session {
	s := &Session{
		user:     data.User,
		comments: make(map[uint][]*models.Comment),
		now:      time.Now,
		logger:   observability.NewStoreLogger("session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var maxID uint
	for i := range data.Posts {
		p := data.Posts[i]
		p.CommentsCount = 0
		s.posts = append(s.posts, &p)
		maxID = max(maxID, p.ID)
	}
	for _, p := range s.posts {
		for _, c := range data.Comments[p.ID] {
			c.PostID = p.ID
			s.comments[p.ID] = append(s.comments[p.ID], &c)
		}
		p.CommentsCount = len(s.comments[p.ID])
		if p.LikesCount < 0 {
			p.LikesCount = 0
		}
	}
	for i := range data.Notifications {
		n := data.Notifications[i]
		s.notifications = append(s.notifications, &n)
	}
	for _, batch := range data.Batches {
		s.batches = append(s.batches, slices.Clone(batch))
	}
	s.nextPostID = maxID + 1
	return s
}

// CurrentUser returns the session's user.
func (s *Session) CurrentUser() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Posts returns a copy of the feed, newest first.
func (s *Session) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPosts(s.posts)
}

// Post returns a copy of the post with the given id.
func (s *Session) Post(id uint) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return *s.posts[i], true
	}
	return models.Post{}, false
}

// Comments returns a copy of a post's comments in the order they were added.
func (s *Session) Comments(postID uint) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyComments(s.comments[postID])
}

// Notifications returns a copy of the notification list.
func (s *Session) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyNotifications(s.notifications)
}

// UnreadCount returns the number of unread notifications.
func (s *Session) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countUnread(s.notifications)
}

// HasMore reports whether a "load more" batch is left.
func (s *Session) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches) > 0
}

// Version increases by one for every committed mutation.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// State is a consistent copy of the whole store at one version.
type State struct {
	Version       uint64
	User          models.User
	Posts         []models.Post
	Comments      map[uint][]models.Comment
	Notifications []models.Notification
	HasMore       bool
}

// Snapshot copies the store under a single read lock.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make(map[uint][]models.Comment, len(s.comments))
	for id, cs := range s.comments {
		comments[id] = copyComments(cs)
	}
	return State{
		Version:       s.version,
		User:          s.user,
		Posts:         copyPosts(s.posts),
		Comments:      comments,
		Notifications: copyNotifications(s.notifications),
		HasMore:       len(s.batches) > 0,
	}
}

// Update runs fn with exclusive access to the store. The version is bumped
// only when fn returns nil. fn must validate before it mutates: a failing fn
// must leave the store unchanged.
func (s *Session) Update(ctx context.Context, operation string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s}
	if err := fn(tx); err != nil {
		s.logger.LogError(ctx, err, operation)
		return err
	}
	if tx.dirty {
		s.version++
		s.logger.LogMutation(ctx, operation, s.version, tx.fields)
	}
	return nil
}

func (s *Session) indexOf(id uint) int {
	return slices.IndexFunc(s.posts, func(p *models.Post) bool { return p.ID == id })
}

func copyPosts(in []*models.Post) []models.Post {
	out := make([]models.Post, len(in))
	for i, p := range in {
		out[i] = *p
	}
	return out
}

func copyComments(in []*models.Comment) []models.Comment {
	out := make([]models.Comment, len(in))
	for i, c := range in {
		out[i] = *c
	}
	return out
}

func copyNotifications(in []*models.Notification) []models.Notification {
	out := make([]models.Notification, len(in))
	for i, n := range in {
		out[i] = *n
	}
	return out
}

func countUnread(in []*models.Notification) int {
	n := 0
	for _, item := range in {
		if !item.Read {
			n++
		}
	}
	return n
}
