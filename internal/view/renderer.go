package view

import (
	"context"
	"fmt"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/observability"
	"vibefeed/internal/repository"
)

// Cache stores projected views. fetch must fill dest on a miss.
type Cache interface {
	Aside(ctx context.Context, key string, dest any, fetch func() error) error
}

type noCache struct{}

func (noCache) Aside(_ context.Context, _ string, _ any, fetch func() error) error {
	return fetch()
}

// Projector snapshots the store and runs the pure projections. Clock
// readings are truncated to the minute so a cached view stays identical to a
// fresh one for the lifetime of its key.
type Projector struct {
	store *repository.Session
	now   func() time.Time
	cache Cache
}

// NewProjector creates a Projector. A nil cache disables caching.
func NewProjector(store *repository.Session, now func() time.Time, cache Cache) *Projector {
	if now == nil {
		now = time.Now
	}
	if cache == nil {
		cache = noCache{}
	}
	return &Projector{store: store, now: now, cache: cache}
}

func (p *Projector) frame() (repository.State, time.Time) {
	return p.store.Snapshot(), p.now().Truncate(time.Minute)
}

func key(kind string, st repository.State, now time.Time, extra string) string {
	return fmt.Sprintf("view:%s:v%d:t%d:%s", kind, st.Version, now.Unix(), extra)
}

// Feed renders the home feed.
func (p *Projector) Feed(ctx context.Context) (FeedView, error) {
	defer observability.TrackProjection("feed")()
	st, now := p.frame()
	var out FeedView
	err := p.cache.Aside(ctx, key("feed", st, now, ""), &out, func() error {
		out = Feed(st, now)
		return nil
	})
	return out, err
}

// PostDetail renders one post with its comments.
func (p *Projector) PostDetail(ctx context.Context, postID uint) (PostDetailView, error) {
	defer observability.TrackProjection("post")()
	st, now := p.frame()
	var out PostDetailView
	err := p.cache.Aside(ctx, key("post", st, now, fmt.Sprint(postID)), &out, func() error {
		var err error
		out, err = PostDetail(st, postID, now)
		return err
	})
	return out, err
}

// Search renders a result list produced by the feed service.
func (p *Projector) Search(_ context.Context, query string, results []models.Post) SearchView {
	defer observability.TrackProjection("search")()
	st, now := p.frame()
	return Search(st, query, results, now)
}

// Profile renders the current user's page.
func (p *Projector) Profile(ctx context.Context) (ProfileView, error) {
	defer observability.TrackProjection("profile")()
	st, now := p.frame()
	var out ProfileView
	err := p.cache.Aside(ctx, key("profile", st, now, ""), &out, func() error {
		out = Profile(st, now)
		return nil
	})
	return out, err
}

// Notifications renders the notification panel.
func (p *Projector) Notifications(ctx context.Context) (NotificationPanel, error) {
	defer observability.TrackProjection("notifications")()
	st, now := p.frame()
	var out NotificationPanel
	err := p.cache.Aside(ctx, key("notifications", st, now, ""), &out, func() error {
		out = Notifications(st, now)
		return nil
	})
	return out, err
}
