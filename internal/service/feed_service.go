// Package service implements the feed's interaction engine: validated
// operations over the session store.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"vibefeed/internal/models"
	"vibefeed/internal/observability"
	"vibefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxPostLen    = 500
	maxCommentLen = 1000
	maxNameLen    = 80
	maxReasonLen  = 500
)

// ErrNoMorePosts is returned by LoadMore once every batch has been appended.
var ErrNoMorePosts = &models.AppError{Code: models.CodeNotFound, Message: "No more posts to load"}

type FeedService struct {
	store *repository.Session
}

type CreatePostInput struct {
	Content  string
	ImageURL string
}

type AddCommentInput struct {
	PostID  uint
	Content string
}

type EditPostInput struct {
	PostID  uint
	Content string
}

type ReportPostInput struct {
	PostID uint
	Reason string
}

type UpdateProfileInput struct {
	Name   string
	Avatar string
}

func NewFeedService(store *repository.Session) *FeedService {
	return &FeedService{store: store}
}

// Store exposes the session for read-only consumers such as the projector.
func (s *FeedService) Store() *repository.Session {
	return s.store
}

// observe wraps an operation with a span, an outcome counter and a log line.
func (s *FeedService) observe(ctx context.Context, operation string, postID uint, fn func(ctx context.Context) error) error {
	span, ctx := observability.NewSpan(ctx, "feed."+operation, attribute.Int64("post.id", int64(postID)))
	err := fn(ctx)
	span.End(err)

	outcome := "ok"
	if err != nil {
		outcome = models.CodeOf(err)
	}
	observability.RecordOperation(operation, outcome)

	fields := map[string]interface{}{}
	if postID != 0 {
		fields["post_id"] = postID
	}
	observability.LogServiceCall(ctx, "feed", operation, err, fields)
	return err
}

func validateText(field, raw string, maxLen int) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(text) > maxLen {
		return "", models.NewValidationError(field + " is too long")
	}
	return text, nil
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	var created models.Post
	err := s.observe(ctx, "create_post", 0, func(ctx context.Context) error {
		content, err := validateText("Content", in.Content, maxPostLen)
		if err != nil {
			return err
		}
		return s.store.Update(ctx, "create_post", func(tx *repository.Tx) error {
			now := tx.Now()
			created = *tx.PrependPost(models.Post{
				Author:    tx.CurrentUser().Snapshot(),
				Content:   content,
				ImageURL:  strings.TrimSpace(in.ImageURL),
				CreatedAt: now,
				UpdatedAt: now,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *FeedService) ToggleLike(ctx context.Context, postID uint) (*models.Post, error) {
	var updated models.Post
	err := s.observe(ctx, "toggle_like", postID, func(ctx context.Context) error {
		return s.store.Update(ctx, "toggle_like", func(tx *repository.Tx) error {
			post := tx.Post(postID)
			if post == nil {
				return models.NewNotFoundError("Post", postID)
			}
			if post.Liked {
				post.Liked = false
				if post.LikesCount > 0 {
					post.LikesCount--
				}
			} else {
				post.Liked = true
				post.LikesCount++
			}
			updated = *post
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FeedService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	var created models.Comment
	err := s.observe(ctx, "add_comment", in.PostID, func(ctx context.Context) error {
		content, err := validateText("Comment", in.Content, maxCommentLen)
		if err != nil {
			return err
		}
		return s.store.Update(ctx, "add_comment", func(tx *repository.Tx) error {
			c := tx.AppendComment(in.PostID, tx.CurrentUser().Snapshot(), content)
			if c == nil {
				return models.NewNotFoundError("Post", in.PostID)
			}
			created = *c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *FeedService) EditPost(ctx context.Context, in EditPostInput) (*models.Post, error) {
	var updated models.Post
	err := s.observe(ctx, "edit_post", in.PostID, func(ctx context.Context) error {
		return s.store.Update(ctx, "edit_post", func(tx *repository.Tx) error {
			current, ok := tx.Peek(in.PostID)
			if !ok {
				return models.NewNotFoundError("Post", in.PostID)
			}
			if !current.OwnedBy(tx.CurrentUser().ID) {
				return models.NewPermissionError("You can only edit your own posts")
			}
			content, err := validateText("Content", in.Content, maxPostLen)
			if err != nil {
				return err
			}
			post := tx.Post(in.PostID)
			post.Content = content
			post.UpdatedAt = tx.Now()
			updated = *post
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FeedService) DeletePost(ctx context.Context, postID uint) error {
	return s.observe(ctx, "delete_post", postID, func(ctx context.Context) error {
		return s.store.Update(ctx, "delete_post", func(tx *repository.Tx) error {
			current, ok := tx.Peek(postID)
			if !ok {
				return models.NewNotFoundError("Post", postID)
			}
			if !current.OwnedBy(tx.CurrentUser().ID) {
				return models.NewPermissionError("You can only delete your own posts")
			}
			tx.RemovePost(postID)
			return nil
		})
	})
}

func (s *FeedService) SharePost(ctx context.Context, postID uint) (*models.Post, error) {
	var updated models.Post
	err := s.observe(ctx, "share_post", postID, func(ctx context.Context) error {
		return s.store.Update(ctx, "share_post", func(tx *repository.Tx) error {
			post := tx.Post(postID)
			if post == nil {
				return models.NewNotFoundError("Post", postID)
			}
			post.SharesCount++
			updated = *post
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ReportPost acknowledges a report. The post itself does not change.
func (s *FeedService) ReportPost(ctx context.Context, in ReportPostInput) error {
	return s.observe(ctx, "report_post", in.PostID, func(ctx context.Context) error {
		if _, ok := s.store.Post(in.PostID); !ok {
			return models.NewNotFoundError("Post", in.PostID)
		}
		reason := strings.TrimSpace(in.Reason)
		if utf8.RuneCountInString(reason) > maxReasonLen {
			return models.NewValidationError("Reason is too long")
		}
		observability.ReportsTotal.Inc()
		observability.GlobalLogger.InfoContext(ctx, "post reported",
			"post_id", in.PostID,
			"reason", reason,
		)
		return nil
	})
}

// Feed returns the whole feed, newest first.
func (s *FeedService) Feed(_ context.Context) []models.Post {
	return s.store.Posts()
}

func (s *FeedService) GetPost(_ context.Context, postID uint) (*models.Post, error) {
	post, ok := s.store.Post(postID)
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return &post, nil
}

func (s *FeedService) ListComments(_ context.Context, postID uint) ([]models.Comment, error) {
	if _, ok := s.store.Post(postID); !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.store.Comments(postID), nil
}

// UserPosts returns the posts authored by userID in feed order.
func (s *FeedService) UserPosts(_ context.Context, userID uint) []models.Post {
	posts := s.store.Posts()
	out := posts[:0]
	for _, p := range posts {
		if p.OwnedBy(userID) {
			out = append(out, p)
		}
	}
	return out
}

// LoadMore appends the next static batch to the tail of the feed.
func (s *FeedService) LoadMore(ctx context.Context) (int, error) {
	var added int
	err := s.observe(ctx, "load_more", 0, func(ctx context.Context) error {
		return s.store.Update(ctx, "load_more", func(tx *repository.Tx) error {
			added = tx.AppendNextBatch()
			if added == 0 {
				return ErrNoMorePosts
			}
			return nil
		})
	})
	return added, err
}

// UpdateProfile changes the current user's name and avatar. Posts and
// comments already written keep the author snapshot they were created with.
func (s *FeedService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	var user models.User
	err := s.observe(ctx, "update_profile", 0, func(ctx context.Context) error {
		name, err := validateText("Name", in.Name, maxNameLen)
		if err != nil {
			return err
		}
		return s.store.Update(ctx, "update_profile", func(tx *repository.Tx) error {
			user = tx.SetProfile(name, strings.TrimSpace(in.Avatar))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkNotificationsRead marks every notification read and returns how many changed.
func (s *FeedService) MarkNotificationsRead(ctx context.Context) int {
	var changed int
	_ = s.observe(ctx, "mark_notifications_read", 0, func(ctx context.Context) error {
		return s.store.Update(ctx, "mark_notifications_read", func(tx *repository.Tx) error {
			changed = tx.MarkNotificationsRead()
			return nil
		})
	})
	return changed
}
