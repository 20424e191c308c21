package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/repository"
	"vibefeed/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *FeedService {
	t.Helper()
	store := repository.NewSession(
		seed.Sample(fixedNow, seed.DefaultOptions(42)),
		repository.WithClock(func() time.Time { return fixedNow }),
	)
	return NewFeedService(store)
}

// ownPostID returns a post authored by the current user.
func ownPostID(t *testing.T, svc *FeedService) uint {
	t.Helper()
	me := svc.Store().CurrentUser().ID
	for _, p := range svc.Store().Posts() {
		if p.OwnedBy(me) {
			return p.ID
		}
	}
	t.Fatal("no post owned by the current user")
	return 0
}

// foreignPostID returns a post authored by someone else.
func foreignPostID(t *testing.T, svc *FeedService) uint {
	t.Helper()
	me := svc.Store().CurrentUser().ID
	for _, p := range svc.Store().Posts() {
		if !p.OwnedBy(me) {
			return p.ID
		}
	}
	t.Fatal("no foreign post")
	return 0
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestFeedService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{name: "empty content", input: CreatePostInput{}},
		{name: "whitespace content", input: CreatePostInput{Content: "  \n\t "}},
		{name: "content too long", input: CreatePostInput{Content: strings.Repeat("x", maxPostLen+1)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)
			before := svc.Store().Posts()

			_, err := svc.CreatePost(context.Background(), tc.input)

			assertCode(t, err, models.CodeValidation)
			assert.True(t, errors.Is(err, models.ErrValidation))
			assert.Equal(t, before, svc.Store().Posts())
			assert.Equal(t, uint64(0), svc.Store().Version())
		})
	}
}

func TestFeedService_CreatePost_LengthBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "exactly 500", content: strings.Repeat("x", 500)},
		{name: "501 rejected", content: strings.Repeat("x", 501), wantErr: true},
		{name: "500 multibyte runes", content: strings.Repeat("é", 500)},
		{name: "padding is trimmed first", content: "  " + strings.Repeat("x", 500) + "  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)

			post, err := svc.CreatePost(context.Background(), CreatePostInput{Content: tc.content})
			if tc.wantErr {
				assertCode(t, err, models.CodeValidation)
				assert.Len(t, svc.Store().Posts(), 5)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tc.content), post.Content)
		})
	}
}

func TestFeedService_EditPost_LengthBoundary(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	id := ownPostID(t, svc)
	ctx := context.Background()

	_, err := svc.EditPost(ctx, EditPostInput{PostID: id, Content: strings.Repeat("y", 501)})
	assertCode(t, err, models.CodeValidation)

	post, err := svc.EditPost(ctx, EditPostInput{PostID: id, Content: strings.Repeat("y", 500)})
	require.NoError(t, err)
	assert.Len(t, post.Content, 500)
}

func TestFeedService_CreatePost_InsertsAtFront(t *testing.T) {
	t.Parallel()

	inputs := []string{"a", "Hello world", "  padded  ", "ünïcödé ✓"}
	for _, content := range inputs {
		content := content
		t.Run(content, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t)
			before := svc.Store().Posts()

			post, err := svc.CreatePost(context.Background(), CreatePostInput{Content: content, ImageURL: " https://img.example/x.png "})
			require.NoError(t, err)

			after := svc.Store().Posts()
			require.Len(t, after, len(before)+1)
			assert.Equal(t, post.ID, after[0].ID)
			assert.Equal(t, strings.TrimSpace(content), after[0].Content)
			assert.Equal(t, "https://img.example/x.png", after[0].ImageURL)
			assert.False(t, after[0].Liked)
			assert.Zero(t, after[0].LikesCount)
			assert.Zero(t, after[0].CommentsCount)
			assert.Zero(t, after[0].SharesCount)
			assert.True(t, after[0].OwnedBy(svc.Store().CurrentUser().ID))
			assert.Equal(t, postIDs(before), postIDs(after[1:]))
		})
	}
}

func TestFeedService_CreatePost_IDsIncrease(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreatePost(ctx, CreatePostInput{Content: "first"})
	require.NoError(t, err)
	b, err := svc.CreatePost(ctx, CreatePostInput{Content: "second"})
	require.NoError(t, err)

	assert.Greater(t, b.ID, a.ID)
	assert.Equal(t, []uint{b.ID, a.ID}, postIDs(svc.Store().Posts()[:2]))
}

func TestFeedService_ToggleLike_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	for _, original := range svc.Store().Posts() {
		first, err := svc.ToggleLike(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, !original.Liked, first.Liked)

		second, err := svc.ToggleLike(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, original.Liked, second.Liked)
		assert.Equal(t, original.LikesCount, second.LikesCount)
	}
}

func TestFeedService_ToggleLike_NeverNegative(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// A seeded post that claims to be liked with zero likes is the only way to
	// reach the decrement-at-zero branch.
	data := seed.Sample(fixedNow, seed.DefaultOptions(42))
	data.Posts[0].Liked = true
	data.Posts[0].LikesCount = 0
	svc := NewFeedService(repository.NewSession(data))
	id := data.Posts[0].ID

	for i := 0; i < 7; i++ {
		post, err := svc.ToggleLike(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, post.LikesCount, 0)
	}

	fresh := newTestService(t)
	created, err := fresh.CreatePost(ctx, CreatePostInput{Content: "zero likes"})
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		post, err := fresh.ToggleLike(ctx, created.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, post.LikesCount, 0)
	}
}

func TestFeedService_ToggleLike_NotFound(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	_, err := svc.ToggleLike(context.Background(), 999)
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, uint64(0), svc.Store().Version())
}

func TestFeedService_AddComment(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	for _, p := range svc.Store().Posts() {
		before := len(svc.Store().Comments(p.ID))

		c, err := svc.AddComment(ctx, AddCommentInput{PostID: p.ID, Content: " Great post! "})
		require.NoError(t, err)
		assert.Equal(t, "Great post!", c.Content)
		assert.Equal(t, uint(before+1), c.ID)
		assert.Equal(t, svc.Store().CurrentUser().Snapshot(), c.Author)

		updated, ok := svc.Store().Post(p.ID)
		require.True(t, ok)
		assert.Equal(t, p.CommentsCount+1, updated.CommentsCount)
		assert.Len(t, svc.Store().Comments(p.ID), before+1)
		assert.Equal(t, len(svc.Store().Comments(p.ID)), updated.CommentsCount)
	}
}

func TestFeedService_AddComment_Errors(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	id := svc.Store().Posts()[0].ID

	_, err := svc.AddComment(ctx, AddCommentInput{PostID: id, Content: "   "})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.AddComment(ctx, AddCommentInput{PostID: id, Content: strings.Repeat("y", maxCommentLen+1)})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.AddComment(ctx, AddCommentInput{PostID: 404, Content: "hello"})
	assertCode(t, err, models.CodeNotFound)

	assert.Equal(t, uint64(0), svc.Store().Version())
}

func TestFeedService_EditPost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("owner can edit", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)
		id := ownPostID(t, svc)

		post, err := svc.EditPost(ctx, EditPostInput{PostID: id, Content: "Edited text"})
		require.NoError(t, err)
		assert.Equal(t, "Edited text", post.Content)

		stored, _ := svc.Store().Post(id)
		assert.Equal(t, "Edited text", stored.Content)
	})

	t.Run("non-owner is rejected and content unchanged", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)
		id := foreignPostID(t, svc)
		before, _ := svc.Store().Post(id)

		_, err := svc.EditPost(ctx, EditPostInput{PostID: id, Content: "hijacked"})
		assertCode(t, err, models.CodePermission)
		assert.True(t, errors.Is(err, models.ErrPermission))

		after, _ := svc.Store().Post(id)
		assert.Equal(t, before.Content, after.Content)
		assert.Equal(t, uint64(0), svc.Store().Version())
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)
		id := ownPostID(t, svc)
		before, _ := svc.Store().Post(id)

		_, err := svc.EditPost(ctx, EditPostInput{PostID: id, Content: " "})
		assertCode(t, err, models.CodeValidation)

		after, _ := svc.Store().Post(id)
		assert.Equal(t, before.Content, after.Content)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.EditPost(ctx, EditPostInput{PostID: 999, Content: "x"})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestFeedService_DeletePost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes exactly one and preserves order", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		// Build [A, B, C] at the head so B is owned by the current user.
		c, err := svc.CreatePost(ctx, CreatePostInput{Content: "C"})
		require.NoError(t, err)
		b, err := svc.CreatePost(ctx, CreatePostInput{Content: "B"})
		require.NoError(t, err)
		a, err := svc.CreatePost(ctx, CreatePostInput{Content: "A"})
		require.NoError(t, err)

		before := postIDs(svc.Store().Posts())
		require.NoError(t, svc.DeletePost(ctx, b.ID))
		after := postIDs(svc.Store().Posts())

		assert.Len(t, after, len(before)-1)
		assert.Equal(t, []uint{a.ID, c.ID}, after[:2])
		expected := slices.DeleteFunc(slices.Clone(before), func(id uint) bool { return id == b.ID })
		assert.Equal(t, expected, after)
	})

	t.Run("non-owner", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)
		before := svc.Store().Posts()

		err := svc.DeletePost(ctx, foreignPostID(t, svc))
		assertCode(t, err, models.CodePermission)
		assert.Equal(t, before, svc.Store().Posts())
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		err := svc.DeletePost(ctx, 999)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestFeedService_SharePost(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	id := foreignPostID(t, svc)
	before, _ := svc.Store().Post(id)

	for i := 1; i <= 3; i++ {
		post, err := svc.SharePost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before.SharesCount+i, post.SharesCount)
	}

	_, err := svc.SharePost(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestFeedService_ReportPost(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	id := foreignPostID(t, svc)
	before := svc.Store().Snapshot()

	require.NoError(t, svc.ReportPost(ctx, ReportPostInput{PostID: id, Reason: "spam"}))
	assert.Equal(t, before, svc.Store().Snapshot(), "reporting leaves the store untouched")

	err := svc.ReportPost(ctx, ReportPostInput{PostID: 999})
	assertCode(t, err, models.CodeNotFound)

	err = svc.ReportPost(ctx, ReportPostInput{PostID: id, Reason: strings.Repeat("r", maxReasonLen+1)})
	assertCode(t, err, models.CodeValidation)
}

func TestFeedService_Search(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	all := svc.Store().Posts()

	tests := []struct {
		name  string
		query string
		want  func(p models.Post) bool
	}{
		{"empty query returns everything", "", func(models.Post) bool { return true }},
		{"blank query returns everything", "   ", func(models.Post) bool { return true }},
		{"no match", "xyz-no-match", func(models.Post) bool { return false }},
		{"content match is case-insensitive", "COFFEE", func(p models.Post) bool {
			return strings.Contains(strings.ToLower(p.Content), "coffee")
		}},
		{"author name match", "sarah", func(p models.Post) bool {
			return strings.Contains(strings.ToLower(p.Author.Name), "sarah") ||
				strings.Contains(strings.ToLower(p.Content), "sarah")
		}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var expected []uint
			for _, p := range all {
				if tc.want(p) {
					expected = append(expected, p.ID)
				}
			}

			got := slices.Collect(svc.Search(ctx, tc.query))

			if len(expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, expected, postIDs(got))
		})
	}
}

func TestFeedService_Search_RestartableAndLazy(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	seq := svc.Search(ctx, "")
	first := slices.Collect(seq)

	created, err := svc.CreatePost(ctx, CreatePostInput{Content: "fresh"})
	require.NoError(t, err)

	second := slices.Collect(seq)
	require.Len(t, second, len(first)+1)
	assert.Equal(t, created.ID, second[0].ID)

	// Early break stops iteration.
	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestFeedService_Search_UnicodeFolding(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, CreatePostInput{Content: "Grüße aus STRASSE"})
	require.NoError(t, err)

	got := slices.Collect(svc.Search(ctx, "grüße"))
	require.NotEmpty(t, got)
	assert.Equal(t, created.ID, got[0].ID)
}

func TestFeedService_Scenario_CreateAndToggle(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{Content: "Hello world"})
	require.NoError(t, err)

	head := svc.Store().Posts()[0]
	assert.Equal(t, "Hello world", head.Content)
	assert.Zero(t, head.LikesCount)
	assert.Zero(t, head.CommentsCount)

	liked, err := svc.ToggleLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount)
	assert.True(t, liked.Liked)

	unliked, err := svc.ToggleLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, unliked.LikesCount)
	assert.False(t, unliked.Liked)
}

func TestFeedService_UserPosts(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	me := svc.Store().CurrentUser().ID

	created, err := svc.CreatePost(ctx, CreatePostInput{Content: "mine"})
	require.NoError(t, err)

	posts := svc.UserPosts(ctx, me)
	require.NotEmpty(t, posts)
	assert.Equal(t, created.ID, posts[0].ID)
	for _, p := range posts {
		assert.True(t, p.OwnedBy(me))
	}
}

func TestFeedService_GetPostAndComments(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	id := ownPostID(t, svc)

	post, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	comments, err := svc.ListComments(ctx, id)
	require.NoError(t, err)
	assert.Len(t, comments, post.CommentsCount)

	_, err = svc.GetPost(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.ListComments(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestFeedService_LoadMore(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	initial := len(svc.Feed(ctx))

	added, err := svc.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	feed := svc.Feed(ctx)
	require.Len(t, feed, initial+added)
	for i := initial; i < len(feed); i++ {
		assert.True(t, feed[i].CreatedAt.Before(feed[initial-1].CreatedAt), "batch posts are older than the visible feed")
	}

	for {
		_, err = svc.LoadMore(ctx)
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrNoMorePosts)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFeedService_UpdateProfile_KeepsSnapshots(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	id := ownPostID(t, svc)
	before, _ := svc.Store().Post(id)

	user, err := svc.UpdateProfile(ctx, UpdateProfileInput{Name: "  Alex J.  "})
	require.NoError(t, err)
	assert.Equal(t, "Alex J.", user.Name)
	assert.Equal(t, before.Author.Avatar, user.Avatar, "blank avatar keeps the current one")

	after, _ := svc.Store().Post(id)
	assert.Equal(t, before.Author, after.Author)
	assert.True(t, after.OwnedBy(user.ID), "ownership follows the id, not the name")

	created, err := svc.CreatePost(ctx, CreatePostInput{Content: "new name"})
	require.NoError(t, err)
	assert.Equal(t, "Alex J.", created.Author.Name)

	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{Name: ""})
	assertCode(t, err, models.CodeValidation)
}

func TestFeedService_MarkNotificationsRead(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	unread := svc.Store().UnreadCount()
	require.Positive(t, unread)

	assert.Equal(t, unread, svc.MarkNotificationsRead(ctx))
	assert.Zero(t, svc.Store().UnreadCount())
	assert.Zero(t, svc.MarkNotificationsRead(ctx))
}
