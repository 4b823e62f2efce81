package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 7, Username: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Username)
	assert.True(t, mr.Exists(UserKey(7)))

	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read should be served from redis")

	mr.FastForward(UserTTL + time.Second)
	var third cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupRedis(t)
	boom := errors.New("db down")

	var dest cachedUser
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	SetClient(nil)
	var dest cachedUser
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.ID = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), dest.ID)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(3), cachedUser{ID: 3}, UserTTL))
	require.NoError(t, SetJSON(ctx, UsernameKey("Bob"), cachedUser{ID: 3}, UserTTL))
	require.NoError(t, SetJSON(ctx, ExploreFeedKey, []cachedUser{{ID: 3}}, ExploreFeedTTL))

	require.NoError(t, SetJSON(ctx, UsernameKey("bob"), cachedUser{ID: 4}, UserTTL))

	InvalidateUser(ctx, 3, "Bob")
	assert.False(t, mr.Exists(UserKey(3)))
	assert.False(t, mr.Exists("username:Bob"))
	assert.True(t, mr.Exists("username:bob"), "a differently cased username is a different identity")
	assert.True(t, mr.Exists(ExploreFeedKey))

	InvalidateExploreFeed(ctx)
	assert.False(t, mr.Exists(ExploreFeedKey))
}
