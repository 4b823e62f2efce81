package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	UsernameKeyPrefix = "username:%s"
	ExploreFeedKey    = "feed:explore"
	RevokedTokenKey   = "blacklist:%s"
)

const (
	UserTTL        = 5 * time.Minute
	ExploreFeedTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// UsernameKey is case-preserving: usernames compare exactly in the database.
func UsernameKey(username string) string {
	return fmt.Sprintf(UsernameKeyPrefix, username)
}

func RevokedKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKey, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops every cached projection of one identity.
func InvalidateUser(ctx context.Context, userID uint, username string) {
	keys := []string{UserKey(userID)}
	if username != "" {
		keys = append(keys, UsernameKey(username))
	}
	Invalidate(ctx, keys...)
}

// InvalidateExploreFeed drops the cached global feed after any post mutation.
func InvalidateExploreFeed(ctx context.Context) {
	Invalidate(ctx, ExploreFeedKey)
}
