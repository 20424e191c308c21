package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/repository"
	"vibefeed/internal/seed"
	"vibefeed/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) settle(_ context.Context, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func newTestDispatcher(t *testing.T, opts Options) (*Dispatcher, *service.FeedService, *recorder) {
	t.Helper()
	store := repository.NewSession(
		seed.Sample(fixedNow, seed.DefaultOptions(42)),
		repository.WithClock(func() time.Time { return fixedNow }),
	)
	svc := service.NewFeedService(store)
	rec := &recorder{}
	d := NewDispatcher(svc, opts, rec.settle)
	t.Cleanup(d.Close)
	return d, svc, rec
}

func TestAction_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action Action
		code   string
	}{
		{"missing type", Action{}, models.CodeValidation},
		{"unknown type", Action{Type: "poke"}, models.CodeValidation},
		{"like without post", Action{Type: ActionToggleLike}, models.CodeValidation},
		{"delete without confirm", Action{Type: ActionDeletePost, PostID: 4}, models.CodeConfirmationRequired},
		{"delete confirmed", Action{Type: ActionDeletePost, PostID: 4, Confirmed: true}, ""},
		{"create", Action{Type: ActionCreatePost, Text: "hi"}, ""},
		{"search", Action{Type: ActionSearch}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.action.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, models.CodeOf(err))
		})
	}
}

func TestDispatcher_RapidLikesDeliverOnlyLatest(t *testing.T) {
	t.Parallel()
	d, svc, rec := newTestDispatcher(t, Options{Latency: 50 * time.Millisecond})
	ctx := context.Background()

	before, err := svc.GetPost(ctx, 5)
	require.NoError(t, err)

	first, err := d.Dispatch(ctx, Action{Type: ActionToggleLike, PostID: 5})
	require.NoError(t, err)
	second, err := d.Dispatch(ctx, Action{Type: ActionToggleLike, PostID: 5})
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	after, err := svc.GetPost(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, before.Liked, after.Liked)
	assert.Equal(t, before.LikesCount, after.LikesCount)

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, second.Seq, got[0].Seq)
	assert.Equal(t, int64(1), d.Superseded())
}

func TestDispatcher_ConcurrentDispatchSettlesFinalState(t *testing.T) {
	t.Parallel()
	d, svc, rec := newTestDispatcher(t, Options{Latency: 200 * time.Millisecond})
	ctx := context.Background()

	const n = 50
	seqs := make(chan uint64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Dispatch(ctx, Action{Type: ActionToggleLike, PostID: 5})
			if err == nil {
				seqs <- res.Seq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	var latest uint64
	for seq := range seqs {
		latest = max(latest, seq)
	}
	require.Equal(t, uint64(n), latest)

	assert.Eventually(t, func() bool {
		return int64(len(rec.snapshot()))+d.Superseded() == n
	}, 2*time.Second, 10*time.Millisecond)

	got := rec.snapshot()
	require.NotEmpty(t, got)
	final := got[0]
	for _, res := range got[1:] {
		if res.Seq > final.Seq {
			final = res
		}
	}
	assert.Equal(t, latest, final.Seq)

	want, err := svc.GetPost(ctx, 5)
	require.NoError(t, err)
	settled, ok := final.Value.(*models.Post)
	require.True(t, ok)
	assert.Equal(t, want.Liked, settled.Liked)
	assert.Equal(t, want.LikesCount, settled.LikesCount)
}

func TestDispatcher_IndependentTargetsBothSettle(t *testing.T) {
	t.Parallel()
	d, _, rec := newTestDispatcher(t, Options{Latency: 10 * time.Millisecond})
	ctx := context.Background()

	_, err := d.Dispatch(ctx, Action{Type: ActionToggleLike, PostID: 5})
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Action{Type: ActionSharePost, PostID: 3})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, d.Superseded())
}

func TestDispatcher_ErrorsReturnImmediately(t *testing.T) {
	t.Parallel()
	d, svc, rec := newTestDispatcher(t, Options{Latency: 10 * time.Millisecond})
	ctx := context.Background()

	res, err := d.Dispatch(ctx, Action{Type: ActionDeletePost, PostID: 5})
	require.Error(t, err)
	assert.Equal(t, models.CodeConfirmationRequired, res.Code)

	_, err = svc.GetPost(ctx, 5)
	assert.NoError(t, err, "unconfirmed delete leaves the post")

	res, err = d.Dispatch(ctx, Action{Type: ActionEditPost, PostID: 5, Text: "mine now"})
	require.Error(t, err)
	assert.Equal(t, models.CodePermission, res.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestDispatcher_ToastAndValue(t *testing.T) {
	t.Parallel()
	d, _, _ := newTestDispatcher(t, Options{})
	ctx := context.Background()

	res, err := d.Dispatch(ctx, Action{Type: ActionCreatePost, Text: "  hello world  "})
	require.NoError(t, err)
	assert.Equal(t, "Post created successfully!", res.Toast)
	post, ok := res.Value.(*models.Post)
	require.True(t, ok)
	assert.Equal(t, "hello world", post.Content)

	res, err = d.Dispatch(ctx, Action{Type: ActionSearch, Text: "HELLO"})
	require.NoError(t, err)
	results, ok := res.Value.([]models.Post)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, post.ID, results[0].ID)
}

func TestDispatcher_MarkReadIsDelayed(t *testing.T) {
	t.Parallel()
	d, svc, rec := newTestDispatcher(t, Options{ReadDelay: 30 * time.Millisecond})
	ctx := context.Background()

	require.Positive(t, svc.Store().UnreadCount())
	_, err := d.Dispatch(ctx, Action{Type: ActionMarkNotificationsRead})
	require.NoError(t, err)
	assert.Positive(t, svc.Store().UnreadCount(), "unread markers stay until the delay elapses")

	assert.Eventually(t, func() bool { return svc.Store().UnreadCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDispatcher_CloseCancelsPending(t *testing.T) {
	t.Parallel()
	d, _, rec := newTestDispatcher(t, Options{Latency: time.Hour})

	_, err := d.Dispatch(context.Background(), Action{Type: ActionSharePost, PostID: 5})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
	assert.Empty(t, rec.snapshot())

	// Mutations still apply after Close; only completions are dropped.
	_, err = d.Dispatch(context.Background(), Action{Type: ActionSharePost, PostID: 5})
	assert.NoError(t, err)
}
