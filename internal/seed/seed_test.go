package seed

import (
	"context"
	"testing"
	"time"

	"socialconnect/internal/database"
	"socialconnect/internal/models"
	"socialconnect/internal/testutil"
	"socialconnect/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	blobs := testutil.NewBlobStoreStub()

	stats, err := Seed(context.Background(), db, blobs, Options{
		NumUsers:       5,
		PostsPerUser:   2,
		StoriesPerUser: 3,
		FollowsPerUser: 2,
		SkipBcrypt:     true,
		RandSeed:       42,
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 5, Follows: 10, Posts: 10, Comments: 10, Stories: 15}, *stats)
	assert.Len(t, blobs.Blobs, 25)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
	}

	var selfEdges int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&selfEdges).Error)
	assert.Zero(t, selfEdges)

	var stories []models.Story
	require.NoError(t, db.Find(&stories).Error)
	for _, s := range stories {
		assert.WithinDuration(t, time.Now(), s.CreatedAt, 37*time.Hour)
	}
}

func TestSeed_CleanIsRepeatable(t *testing.T) {
	db := setupTestDB(t)
	opts := Options{NumUsers: 3, PostsPerUser: 1, FollowsPerUser: 1, SkipBcrypt: true, RandSeed: 7}

	_, err := Seed(context.Background(), db, nil, opts)
	require.NoError(t, err)

	opts.ShouldClean = true
	_, err = Seed(context.Background(), db, nil, opts)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
