package service

import (
	"context"
	"time"

	"socialconnect/internal/cache"
	"socialconnect/internal/expiry"
	"socialconnect/internal/featureflags"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"
	"socialconnect/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService derives ordered, filtered views of content. Every feed is
// newest first with ties broken by id, and every content item carries its
// author's display fields.
type FeedService struct {
	posts   repository.PostRepository
	stories repository.StoryRepository
	follows repository.FollowRepository
	users   repository.UserRepository
	flags   *featureflags.Manager
	authors authorResolver
	now     func() time.Time
}

func NewFeedService(
	posts repository.PostRepository,
	stories repository.StoryRepository,
	follows repository.FollowRepository,
	users repository.UserRepository,
	flags *featureflags.Manager,
) *FeedService {
	return &FeedService{
		posts:   posts,
		stories: stories,
		follows: follows,
		users:   users,
		flags:   flags,
		authors: authorResolver{users: users},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for story visibility.
func (s *FeedService) WithClock(now func() time.Time) *FeedService {
	s.now = now
	return s
}

// HomeFeed returns posts authored by the identities viewerID follows, with
// comment authors resolved.
func (s *FeedService) HomeFeed(ctx context.Context, viewerID uint, page models.Page) (posts []models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "HomeFeed",
		attribute.Int64("viewer.id", int64(viewerID)),
	)
	defer func() { finish(err) }()

	following, err := s.follows.FollowingOf(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err = s.posts.ListByAuthors(ctx, following, page)
	if err != nil {
		return nil, err
	}
	if err := s.authors.posts(ctx, posts); err != nil {
		return nil, err
	}
	observability.RecordFeed("home", len(posts))
	return posts, nil
}

// ExploreFeed returns every post regardless of the follow graph.
func (s *FeedService) ExploreFeed(ctx context.Context, viewerID uint, page models.Page) (posts []models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "ExploreFeed")
	defer func() { finish(err) }()

	if !s.flags.EnabledOrDefault(featureflags.ExploreFeed, viewerID, true) {
		return nil, models.NewNotFoundError("Feed", "explore")
	}

	load := func() error {
		var err error
		if posts, err = s.posts.ListAll(ctx, page); err != nil {
			return err
		}
		return s.authors.posts(ctx, posts)
	}

	if page.Unbounded() && page.Offset == 0 {
		err = cache.Aside(ctx, cache.ExploreFeedKey, &posts, cache.ExploreFeedTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	observability.RecordFeed("explore", len(posts))
	return posts, nil
}

// AuthorFeed returns the posts of one identity, looked up by username.
func (s *FeedService) AuthorFeed(ctx context.Context, username string, page models.Page) (posts []models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "AuthorFeed")
	defer func() { finish(err) }()

	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	posts, err = s.posts.ListByAuthors(ctx, []uint{author.ID}, page)
	if err != nil {
		return nil, err
	}
	if err := s.authors.posts(ctx, posts); err != nil {
		return nil, err
	}
	observability.RecordFeed("author", len(posts))
	return posts, nil
}

// StoryFeed returns the visible stories of the viewer and everyone the
// viewer follows. The query narrows by creation time and the result is
// filtered again with the same instant, so the 24h cutoff is exact.
func (s *FeedService) StoryFeed(ctx context.Context, viewerID uint, page models.Page) (stories []models.Story, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "StoryFeed",
		attribute.Int64("viewer.id", int64(viewerID)),
	)
	defer func() { finish(err) }()

	following, err := s.follows.FollowingOf(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authors := append(following, viewerID)

	now := s.now()
	stories, err = s.stories.ListByAuthorsSince(ctx, authors, expiry.VisibleSince(now), page)
	if err != nil {
		return nil, err
	}
	stories = expiry.ActiveStories(stories, now)
	if err := s.authors.stories(ctx, stories); err != nil {
		return nil, err
	}
	observability.RecordFeed("stories", len(stories))
	return stories, nil
}
