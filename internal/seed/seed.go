// Package seed provides the sample data a session starts with. The data is
// hardcoded for the visible feed and generated deterministically for the
// batches appended by "load more".
package seed

import (
	"fmt"
	"time"

	"vibefeed/internal/models"
)

// Data is everything a new session is constructed from.
type Data struct {
	User          models.User
	Posts         []models.Post // newest first
	Comments      map[uint][]models.Comment
	Notifications []models.Notification
	// Batches are appended to the tail of the feed one at a time, in order.
	Batches [][]models.Post
}

// Options controls sample generation.
type Options struct {
	// Seed makes the generated batches reproducible.
	Seed int64
	// BatchCount is how many "load more" batches exist.
	BatchCount int
	// BatchSize is how many posts each batch holds.
	BatchSize int
}

// DefaultOptions returns the options used by the server.
func DefaultOptions(seed int64) Options {
	return Options{Seed: seed, BatchCount: 3, BatchSize: 5}
}

var (
	currentUser = models.User{ID: 1, Name: "Alex Johnson", Avatar: avatar("alex"), Online: true}
	sarah       = models.Author{ID: 2, Name: "Sarah Wilson", Avatar: avatar("sarah")}
	mike        = models.Author{ID: 3, Name: "Mike Chen", Avatar: avatar("mike")}
	emma        = models.Author{ID: 4, Name: "Emma Davis", Avatar: avatar("emma")}
	james       = models.Author{ID: 5, Name: "James Rodriguez", Avatar: avatar("james")}
)

func avatar(name string) string {
	return fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name)
}

// Sample builds the session's starting data relative to now.
func Sample(now time.Time, opts Options) Data {
	me := currentUser.Snapshot()
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	posts := []models.Post{
		{
			ID:         5,
			Author:     sarah,
			Content:    "Just finished my morning hike! The view from the top was absolutely breathtaking. Nature never fails to amaze me.",
			ImageURL:   "https://picsum.photos/seed/hike/800/600",
			LikesCount: 24,
			CreatedAt:  ago(2 * time.Hour),
		},
		{
			ID:          4,
			Author:      me,
			Content:     "Excited to share that I just launched my new project! Months of hard work finally paying off.",
			LikesCount:  42,
			Liked:       true,
			SharesCount: 3,
			CreatedAt:   ago(5 * time.Hour),
		},
		{
			ID:         3,
			Author:     mike,
			Content:    "Coffee and code, the perfect combination for a productive Monday. What's everyone working on today?",
			ImageURL:   "https://picsum.photos/seed/coffee/800/600",
			LikesCount: 18,
			CreatedAt:  ago(8 * time.Hour),
		},
		{
			ID:          2,
			Author:      emma,
			Content:     "Tried a new recipe tonight and it turned out amazing. Cooking is such a great way to unwind.",
			LikesCount:  31,
			SharesCount: 1,
			CreatedAt:   ago(26 * time.Hour),
		},
		{
			ID:         1,
			Author:     james,
			Content:    "Throwback to last summer's road trip. Can't wait for the next adventure!",
			ImageURL:   "https://picsum.photos/seed/roadtrip/800/600",
			LikesCount: 56,
			CreatedAt:  ago(72 * time.Hour),
		},
	}

	comments := map[uint][]models.Comment{
		5: {
			{ID: 1, PostID: 5, Author: mike, Content: "Wow, stunning view! Which trail was this?", CreatedAt: ago(90 * time.Minute)},
			{ID: 2, PostID: 5, Author: me, Content: "Adding this to my list for the weekend.", CreatedAt: ago(60 * time.Minute)},
		},
		4: {
			{ID: 1, PostID: 4, Author: sarah, Content: "Congratulations! So proud of you!", CreatedAt: ago(4 * time.Hour)},
			{ID: 2, PostID: 4, Author: emma, Content: "Can't wait to try it out.", CreatedAt: ago(3 * time.Hour)},
			{ID: 3, PostID: 4, Author: james, Content: "Well deserved, congrats!", CreatedAt: ago(2 * time.Hour)},
		},
		2: {
			{ID: 1, PostID: 2, Author: me, Content: "Recipe please!", CreatedAt: ago(20 * time.Hour)},
		},
	}

	notifications := []models.Notification{
		{ID: 1, Actor: sarah, Kind: models.NotificationLike, CreatedAt: ago(30 * time.Minute)},
		{ID: 2, Actor: emma, Kind: models.NotificationComment, CreatedAt: ago(3 * time.Hour)},
		{ID: 3, Actor: mike, Kind: models.NotificationFollow, CreatedAt: ago(6 * time.Hour)},
		{ID: 4, Actor: james, Kind: models.NotificationLike, Read: true, CreatedAt: ago(30 * time.Hour)},
	}

	oldest := posts[len(posts)-1].CreatedAt
	return Data{
		User:          currentUser,
		Posts:         posts,
		Comments:      comments,
		Notifications: notifications,
		Batches:       NewFactory(opts.Seed).Batches(oldest, opts.BatchCount, opts.BatchSize),
	}
}
