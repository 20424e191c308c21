package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/observability"
	"vibefeed/internal/service"

	"github.com/sourcegraph/conc"
)

// Result is what an action produced. Value holds the operation's return
// (a post, comment, user, search results, or a count).
type Result struct {
	Seq    uint64     `json:"seq"`
	Action ActionType `json:"action"`
	PostID uint       `json:"post_id,omitempty"`
	Value  any        `json:"value,omitempty"`
	Toast  string     `json:"toast,omitempty"`
	Error  string     `json:"error,omitempty"`
	Code   string     `json:"code,omitempty"`
}

// SettleFunc receives completions that survived their latency window.
type SettleFunc func(ctx context.Context, res Result)

// Options tunes the dispatcher timings.
type Options struct {
	Latency   time.Duration
	ReadDelay time.Duration
}

type pending struct {
	seq    uint64
	cancel context.CancelFunc
}

// Dispatcher applies actions to the feed service in invocation order and
// schedules their visible completion. Per target, only the completion of the
// latest action is delivered.
type Dispatcher struct {
	svc    *service.FeedService
	opts   Options
	settle SettleFunc

	// order serializes sequence assignment, the mutation and completion
	// registration so seq order matches store order.
	order      sync.Mutex
	seq        uint64
	superseded atomic.Int64

	mu      sync.Mutex
	pending map[string]pending
	closed  bool

	base   context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil settle discards completions.
func NewDispatcher(svc *service.FeedService, opts Options, settle SettleFunc) *Dispatcher {
	if settle == nil {
		settle = func(context.Context, Result) {}
	}
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		svc:     svc,
		opts:    opts,
		settle:  settle,
		pending: make(map[string]pending),
		base:    base,
		cancel:  cancel,
	}
}

// Superseded reports how many completions were dropped for a newer action.
func (d *Dispatcher) Superseded() int64 {
	return d.superseded.Load()
}

// Dispatch validates and applies an action. The mutation happens before
// Dispatch returns; the returned Result is also delivered to the settle
// callback once the latency elapses, unless a newer action on the same
// target supersedes it. Marking notifications read is the exception: its
// mutation itself runs in the delayed completion.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Result, error) {
	d.order.Lock()
	defer d.order.Unlock()

	d.seq++
	res := Result{Seq: d.seq, Action: a.Type, PostID: a.PostID}

	if err := a.Validate(); err != nil {
		return withError(res, err), err
	}

	if a.Type == ActionMarkNotificationsRead {
		d.schedule(ctx, a.target(), res.Seq, d.opts.ReadDelay, func(ctx context.Context) Result {
			n := d.svc.MarkNotificationsRead(ctx)
			out := res
			out.Value = n
			out.Toast = "Notifications marked as read"
			return out
		})
		res.Toast = "Marking notifications as read"
		return res, nil
	}

	value, toast, err := d.apply(ctx, a)
	if err != nil {
		return withError(res, err), err
	}
	res.Value = value
	res.Toast = toast

	if a.Type != ActionSearch {
		done := res
		d.schedule(ctx, a.target(), res.Seq, d.opts.Latency, func(context.Context) Result { return done })
	}
	return res, nil
}

func (d *Dispatcher) apply(ctx context.Context, a Action) (any, string, error) {
	switch a.Type {
	case ActionCreatePost:
		p, err := d.svc.CreatePost(ctx, service.CreatePostInput{Content: a.Text, ImageURL: a.ImageURL})
		return p, "Post created successfully!", err
	case ActionToggleLike:
		p, err := d.svc.ToggleLike(ctx, a.PostID)
		if err != nil {
			return nil, "", err
		}
		if p.Liked {
			return p, "Post liked", nil
		}
		return p, "Like removed", nil
	case ActionAddComment:
		c, err := d.svc.AddComment(ctx, service.AddCommentInput{PostID: a.PostID, Content: a.Text})
		return c, "Comment added", err
	case ActionEditPost:
		p, err := d.svc.EditPost(ctx, service.EditPostInput{PostID: a.PostID, Content: a.Text})
		return p, "Post updated", err
	case ActionDeletePost:
		return nil, "Post deleted", d.svc.DeletePost(ctx, a.PostID)
	case ActionSharePost:
		p, err := d.svc.SharePost(ctx, a.PostID)
		return p, "Post shared", err
	case ActionReportPost:
		err := d.svc.ReportPost(ctx, service.ReportPostInput{PostID: a.PostID, Reason: a.Reason})
		return nil, "Post reported. Thank you for keeping our community safe.", err
	case ActionSearch:
		var results []models.Post
		for p := range d.svc.Search(ctx, a.Text) {
			results = append(results, p)
		}
		return results, "", nil
	case ActionLoadMore:
		n, err := d.svc.LoadMore(ctx)
		return n, fmt.Sprintf("Loaded %d more posts", n), err
	case ActionUpdateProfile:
		u, err := d.svc.UpdateProfile(ctx, service.UpdateProfileInput{Name: a.Name, Avatar: a.Avatar})
		return u, "Profile updated", err
	}
	return nil, "", models.NewValidationError(fmt.Sprintf("unknown action type %q", a.Type))
}

func withError(res Result, err error) Result {
	res.Error = err.Error()
	res.Code = models.CodeOf(err)
	return res
}

// schedule registers a completion for key, superseding any pending one with
// a lower seq. A registration older than the pending one is dropped.
func (d *Dispatcher) schedule(ctx context.Context, key string, seq uint64, delay time.Duration, finish func(context.Context) Result) {
	cctx, cancel := context.WithCancel(d.base)
	if id := observability.ExtractCorrelationID(ctx); id != "" {
		cctx = observability.WithCorrelationID(cctx, id)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := d.pending[key]; ok {
		if prev.seq > seq {
			d.mu.Unlock()
			cancel()
			d.superseded.Add(1)
			observability.CompletionsSuperseded.Inc()
			return
		}
		prev.cancel()
		d.superseded.Add(1)
		observability.CompletionsSuperseded.Inc()
		observability.GlobalLogger.DebugContext(ctx, "completion superseded",
			"target", key, "stale_seq", prev.seq, "seq", seq)
	}
	d.pending[key] = pending{seq: seq, cancel: cancel}
	defer d.mu.Unlock()

	observability.PendingCompletions.Inc()
	d.wg.Go(func() {
		defer observability.PendingCompletions.Dec()
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-cctx.Done():
			return
		case <-timer.C:
		}

		d.mu.Lock()
		cur, ok := d.pending[key]
		if !ok || cur.seq != seq {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		d.settle(cctx, finish(cctx))
	})
}

// Close cancels pending completions and waits for their goroutines.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.pending = make(map[string]pending)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
