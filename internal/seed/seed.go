package seed

import (
	"context"
	"fmt"
	"log/slog"

	"socialconnect/internal/blob"
	"socialconnect/internal/middleware"
	"socialconnect/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers       int
	PostsPerUser   int
	StoriesPerUser int
	FollowsPerUser int
	ShouldClean    bool
	SkipBcrypt     bool
	MaxDays        int
	RandSeed       int64
}

// Stats counts what a seeding run created.
type Stats struct {
	Users    int
	Follows  int
	Posts    int
	Comments int
	Stories  int
}

// Seed populates the database with users, a follow mesh, posts, comments
// and stories.
func Seed(ctx context.Context, db *gorm.DB, blobs blob.Store, opts Options) (*Stats, error) {
	logger := middleware.Logger
	logger.Info("Starting database seeding", slog.Int("users", opts.NumUsers))

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, blobs, opts)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(i)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	stats.Users = len(users)

	for i, u := range users {
		// Each user follows the next FollowsPerUser users around the ring,
		// which never produces a self edge or a duplicate.
		for k := 1; k <= opts.FollowsPerUser && k < len(users); k++ {
			if err := f.CreateFollow(ctx, u, users[(i+k)%len(users)]); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			stats.Follows++
		}
	}

	for _, u := range users {
		for p := 0; p < opts.PostsPerUser; p++ {
			post, err := f.CreatePost(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("create post: %w", err)
			}
			stats.Posts++

			if len(users) > 1 {
				commenter := users[f.rng.Intn(len(users))]
				if _, err := f.CreateComment(ctx, commenter, post); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				stats.Comments++
			}
		}
		for s := 0; s < opts.StoriesPerUser; s++ {
			if _, err := f.CreateStory(ctx, u); err != nil {
				return nil, fmt.Errorf("create story: %w", err)
			}
			stats.Stories++
		}
	}

	logger.Info("Database seeding completed",
		slog.Int("users", stats.Users),
		slog.Int("follows", stats.Follows),
		slog.Int("posts", stats.Posts),
		slog.Int("comments", stats.Comments),
		slog.Int("stories", stats.Stories),
	)
	return stats, nil
}

func clearData(db *gorm.DB) error {
	middleware.Logger.Warn("Clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE comments, stories, posts, follows, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"comments", "stories", "posts", "follows", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
