package seed

import (
	"fmt"
	"time"

	"vibefeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory generates older posts for "load more" batches.
// The same seed always yields the same batches.
type Factory struct {
	faker   *gofakeit.Faker
	authors []models.Author
}

// NewFactory creates a Factory with a deterministic faker.
func NewFactory(seed int64) *Factory {
	return &Factory{
		faker:   gofakeit.New(seed),
		authors: []models.Author{sarah, mike, emma, james},
	}
}

// BuildPost constructs a post created before the given time. IDs are left
// zero; the store assigns them when the batch is appended.
func (f *Factory) BuildPost(before time.Time, overrides ...func(*models.Post)) models.Post {
	author := f.authors[f.faker.Number(0, len(f.authors)-1)]
	hoursBack := f.faker.Number(1, 48)
	post := models.Post{
		Author:      author,
		Content:     f.faker.Paragraph(1, 2, 8, " "),
		LikesCount:  f.faker.Number(0, 80),
		SharesCount: f.faker.Number(0, 5),
		CreatedAt:   before.Add(-time.Duration(hoursBack) * time.Hour),
	}
	if f.faker.Bool() {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())
	}

	for _, override := range overrides {
		override(&post)
	}
	return post
}

// Batches builds count batches of size posts each, every post older than the last.
func (f *Factory) Batches(before time.Time, count, size int) [][]models.Post {
	if count <= 0 || size <= 0 {
		return nil
	}
	out := make([][]models.Post, 0, count)
	cursor := before
	for range count {
		batch := make([]models.Post, 0, size)
		for range size {
			p := f.BuildPost(cursor)
			cursor = p.CreatedAt
			batch = append(batch, p)
		}
		out = append(out, batch)
	}
	return out
}
