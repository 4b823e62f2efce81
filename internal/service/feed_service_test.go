package service

import (
	"testing"
	"time"

	"socialconnect/internal/cache"
	"socialconnect/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_HomeFeedOnlyFollowedAuthors(t *testing.T) {
	h := newHarness(t, "")
	viewer, followed, stranger := h.user("viewer"), h.user("followed"), h.user("stranger")
	h.follow(viewer, followed)

	older := h.post(followed.ID, "older", h.now.Add(-2*time.Hour))
	newer := h.post(followed.ID, "newer", h.now.Add(-time.Hour))
	h.post(stranger.ID, "hidden", h.now)
	h.post(viewer.ID, "own", h.now)

	_, err := h.content.AddComment(h.ctx, newer.ID, stranger.ID, "hello")
	require.NoError(t, err)

	feed, err := h.feeds.HomeFeed(h.ctx, viewer.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID, older.ID}, postIDs(feed))

	for _, p := range feed {
		assert.Equal(t, followed.ID, p.UserID)
		require.NotNil(t, p.Author)
		assert.Equal(t, "followed", p.Author.Username)
	}
	require.Len(t, feed[0].Comments, 1)
	assert.Equal(t, "stranger", feed[0].Comments[0].Author.Username)
}

func TestFeedService_HomeFeedEmptyGraph(t *testing.T) {
	h := newHarness(t, "")
	viewer, other := h.user("viewer"), h.user("other")
	h.post(other.ID, "p", h.now)

	feed, err := h.feeds.HomeFeed(h.ctx, viewer.ID, models.Page{})
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFeedService_HomeFeedPagination(t *testing.T) {
	h := newHarness(t, "")
	viewer, author := h.user("viewer"), h.user("author")
	h.follow(viewer, author)
	var ids []uint
	for i := 0; i < 5; i++ {
		ids = append(ids, h.post(author.ID, "p", h.now.Add(time.Duration(i)*time.Minute)).ID)
	}

	feed, err := h.feeds.HomeFeed(h.ctx, viewer.ID, models.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[3], ids[2]}, postIDs(feed))
}

func TestFeedService_ExploreFeed(t *testing.T) {
	h := newHarness(t, "")
	a, b := h.user("a_user"), h.user("b_user")
	first := h.post(a.ID, "first", h.now)
	second := h.post(b.ID, "second", h.now)

	feed, err := h.feeds.ExploreFeed(h.ctx, a.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, postIDs(feed), "equal timestamps fall back to id desc")
	assert.Equal(t, "b_user", feed[0].Author.Username)
}

func TestFeedService_ExploreFeedDisabled(t *testing.T) {
	h := newHarness(t, "explore_feed=off")
	a := h.user("a_user")

	_, err := h.feeds.ExploreFeed(h.ctx, a.ID, models.Page{})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestFeedService_ExploreFeedCacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	h := newHarness(t, "")
	a := h.user("a_user")
	h.post(a.ID, "first", h.now)

	feed, err := h.feeds.ExploreFeed(h.ctx, a.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, mr.Exists(cache.ExploreFeedKey))

	_, err = h.content.CreatePost(h.ctx, CreatePostInput{AuthorID: a.ID, ImageRef: "x.png"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ExploreFeedKey))

	feed, err = h.feeds.ExploreFeed(h.ctx, a.ID, models.Page{})
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestFeedService_AuthorFeed(t *testing.T) {
	h := newHarness(t, "")
	a, b := h.user("a_user"), h.user("b_user")
	mine := h.post(a.ID, "mine", h.now)
	h.post(b.ID, "theirs", h.now)

	feed, err := h.feeds.AuthorFeed(h.ctx, "a_user", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{mine.ID}, postIDs(feed))

	_, err = h.feeds.AuthorFeed(h.ctx, "nobody", models.Page{})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestFeedService_StoryFeedVisibilityWindow(t *testing.T) {
	h := newHarness(t, "")
	viewer, followed, stranger := h.user("viewer"), h.user("followed"), h.user("stranger")
	h.follow(viewer, followed)

	own := h.story(viewer.ID, h.now.Add(-time.Hour))
	fresh := h.story(followed.ID, h.now.Add(-time.Minute))
	edge := h.story(followed.ID, h.now.Add(-models.StoryTTL+time.Second))
	h.story(followed.ID, h.now.Add(-models.StoryTTL))
	h.story(followed.ID, h.now.Add(-models.StoryTTL-time.Second))
	h.story(stranger.ID, h.now)

	feed, err := h.feeds.StoryFeed(h.ctx, viewer.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{fresh.ID, own.ID, edge.ID}, storyIDs(feed))
	for _, s := range feed {
		require.NotNil(t, s.Author)
	}
}

// U1 follows U2, U2 posts and uploads a story: the post reaches U1's home
// feed, and the story is visible until 24h have passed.
func TestFeedService_FollowPostStoryScenario(t *testing.T) {
	h := newHarness(t, "")
	u1, u2 := h.user("u1"), h.user("u2")
	require.NoError(t, h.graph.Follow(h.ctx, u1.ID, u2.ID))

	post, err := h.content.CreatePost(h.ctx, CreatePostInput{AuthorID: u2.ID, Caption: "hi", ImageRef: "p.png"})
	require.NoError(t, err)
	story, err := h.content.CreateStory(h.ctx, CreateStoryInput{AuthorID: u2.ID, ImageRef: "s.png"})
	require.NoError(t, err)

	home, err := h.feeds.HomeFeed(h.ctx, u1.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, postIDs(home))

	h.now = story.CreatedAt
	stories, err := h.feeds.StoryFeed(h.ctx, u1.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{story.ID}, storyIDs(stories))

	h.now = story.CreatedAt.Add(25 * time.Hour)
	stories, err = h.feeds.StoryFeed(h.ctx, u1.ID, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, stories)

	require.NoError(t, h.graph.Unfollow(h.ctx, u1.ID, u2.ID))
	home, err = h.feeds.HomeFeed(h.ctx, u1.ID, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, home)

	explore, err := h.feeds.ExploreFeed(h.ctx, u1.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, postIDs(explore), "explore ignores the follow graph")
}
