package repository

import (
	"context"
	"time"

	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"gorm.io/gorm"
)

// StoryRepository persists stories. Stories are immutable once created and
// only leave the table through the expiry reaper.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	ListByAuthorsSince(ctx context.Context, authorIDs []uint, since time.Time, page models.Page) ([]models.Story, error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Story, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	defer observability.TrackQuery("insert", "stories")()
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return models.NewStoreFailure(err)
	}
	return nil
}

// ListByAuthorsSince returns stories by authorIDs created strictly after
// since, using the (user_id, created_at) index.
func (r *storyRepository) ListByAuthorsSince(ctx context.Context, authorIDs []uint, since time.Time, page models.Page) ([]models.Story, error) {
	stories := []models.Story{}
	if len(authorIDs) == 0 {
		return stories, nil
	}

	defer observability.TrackQuery("list_by_authors", "stories")()
	q := readDB(r.db).WithContext(ctx).
		Where("user_id IN ?", authorIDs).
		Where("created_at > ?", since)
	if err := paginate(newestFirst(q), page).Find(&stories).Error; err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return stories, nil
}

// ListCreatedBefore returns up to limit stories created at or before cutoff,
// oldest first.
func (r *storyRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Story, error) {
	stories := []models.Story{}
	q := r.db.WithContext(ctx).
		Where("created_at <= ?", cutoff).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&stories).Error; err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return stories, nil
}

func (r *storyRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("delete", "stories")()

	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Story{})
	if res.Error != nil {
		return 0, models.NewStoreFailure(res.Error)
	}
	return res.RowsAffected, nil
}
