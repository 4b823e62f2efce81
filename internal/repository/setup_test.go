package repository

import (
	"testing"
	"time"

	"socialconnect/internal/database"
	"socialconnect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB returns a Postgres-dialect gorm handle backed by sqlmock, for
// asserting SQL shape.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupTestDB returns a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
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

func seedUser(t *testing.T, db *gorm.DB, username, fullName string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		FullName: fullName,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, authorID uint, caption string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{UserID: authorID, Caption: caption, Image: caption + ".png", CreatedAt: at}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedStory(t *testing.T, db *gorm.DB, authorID uint, at time.Time) *models.Story {
	t.Helper()
	s := &models.Story{UserID: authorID, Image: "story.png", CreatedAt: at}
	require.NoError(t, db.Create(s).Error)
	return s
}
