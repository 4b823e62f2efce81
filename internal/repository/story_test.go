package repository

import (
	"context"
	"testing"
	"time"

	"socialconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryRepository_ListByAuthorsSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "A")
	b := seedUser(t, db, "b", "B")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	since := now.Add(-models.StoryTTL)

	seedStory(t, db, a.ID, since)
	fresh := seedStory(t, db, a.ID, since.Add(time.Second))
	newest := seedStory(t, db, a.ID, now)
	seedStory(t, db, b.ID, now)

	stories, err := repo.ListByAuthorsSince(ctx, []uint{a.ID}, since, models.Page{})
	require.NoError(t, err)
	require.Len(t, stories, 2, "the boundary is exclusive and other authors are excluded")
	assert.Equal(t, newest.ID, stories[0].ID)
	assert.Equal(t, fresh.ID, stories[1].ID)
}

func TestStoryRepository_Reclaim(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "A")
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old1 := seedStory(t, db, a.ID, cutoff.Add(-2*time.Hour))
	old2 := seedStory(t, db, a.ID, cutoff)
	seedStory(t, db, a.ID, cutoff.Add(time.Minute))

	expired, err := repo.ListCreatedBefore(ctx, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, old1.ID, expired[0].ID)

	limited, err := repo.ListCreatedBefore(ctx, cutoff, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := repo.DeleteByIDs(ctx, []uint{old1.ID, old2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining int64
	require.NoError(t, db.Model(&models.Story{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	n, err = repo.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
