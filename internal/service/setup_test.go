package service

import (
	"context"
	"testing"
	"time"

	"socialconnect/internal/auth"
	"socialconnect/internal/authz"
	"socialconnect/internal/database"
	"socialconnect/internal/featureflags"
	"socialconnect/internal/models"
	"socialconnect/internal/repository"
	"socialconnect/internal/testutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "service-test-secret-at-least-32-chars"

// harness wires every service over one in-memory SQLite database.
type harness struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	now time.Time

	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	stories  repository.StoryRepository
	comments repository.CommentRepository

	blobs    *testutil.BlobStoreStub
	provider *auth.Provider

	graph    *GraphService
	content  *ContentService
	feeds    *FeedService
	identity *IdentityService
}

func newHarness(t *testing.T, flags string) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: database.NowUTC,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		now:      time.Now().UTC().Truncate(time.Second),
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		stories:  repository.NewStoryRepository(db),
		comments: repository.NewCommentRepository(db),
		blobs:    testutil.NewBlobStoreStub(),
		provider: auth.NewProvider(testSecret, time.Hour, nil, auth.WithBcryptCost(bcrypt.MinCost)),
	}

	guard := authz.NewOwnerGuard()
	h.graph = NewGraphService(h.follows, h.users)
	h.content = NewContentService(h.posts, h.stories, h.comments, h.users, h.blobs, guard)
	h.feeds = NewFeedService(h.posts, h.stories, h.follows, h.users, featureflags.NewManager(flags)).
		WithClock(func() time.Time { return h.now })
	h.identity = NewIdentityService(h.users, h.follows, h.provider, h.blobs, guard)
	return h
}

func (h *harness) user(username string) *models.User {
	h.t.Helper()
	hash, err := h.provider.HashPassword("password1")
	require.NoError(h.t, err)
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   hash,
		FullName:   "Full " + username,
		ProfilePic: models.DefaultProfilePic,
	}
	require.NoError(h.t, h.db.Create(u).Error)
	return u
}

func (h *harness) post(authorID uint, caption string, at time.Time) *models.Post {
	h.t.Helper()
	p := &models.Post{UserID: authorID, Caption: caption, Image: caption + ".png", CreatedAt: at}
	require.NoError(h.t, h.db.Create(p).Error)
	h.blobs.Blobs[p.Image] = []byte("img")
	return p
}

func (h *harness) story(authorID uint, at time.Time) *models.Story {
	h.t.Helper()
	s := &models.Story{UserID: authorID, Image: "story.png", CreatedAt: at}
	require.NoError(h.t, h.db.Create(s).Error)
	return s
}

func (h *harness) follow(actor, target *models.User) {
	h.t.Helper()
	require.NoError(h.t, h.graph.Follow(h.ctx, actor.ID, target.ID))
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func storyIDs(stories []models.Story) []uint {
	ids := make([]uint, 0, len(stories))
	for _, s := range stories {
		ids = append(ids, s.ID)
	}
	return ids
}
