// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"socialconnect/internal/cache"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page) ([]models.Post, error)
	ListAll(ctx context.Context, page models.Page) ([]models.Post, error)
	UpdateLocked(ctx context.Context, id uint, mutate func(*models.Post) error) (*models.Post, error)
	DeleteLocked(ctx context.Context, id uint, check func(*models.Post) error) (*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func withComments(db *gorm.DB) *gorm.DB {
	return db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	})
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewStoreFailure(err)
	}
	cache.InvalidateExploreFeed(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withComments(readDB(r.db).WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOrStoreFailure(err, "Post", id)
	}
	return &post, nil
}

// ListByAuthors is an author-indexed range query; it never scans posts by
// authors outside authorIDs.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page) ([]models.Post, error) {
	posts := []models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}

	defer observability.TrackQuery("list_by_authors", "posts")()
	q := readDB(r.db).WithContext(ctx).Where("user_id IN ?", authorIDs)
	if err := paginate(newestFirst(withComments(q)), page).Find(&posts).Error; err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return posts, nil
}

func (r *postRepository) ListAll(ctx context.Context, page models.Page) ([]models.Post, error) {
	defer observability.TrackQuery("list_all", "posts")()

	posts := []models.Post{}
	q := readDB(r.db).WithContext(ctx)
	if err := paginate(newestFirst(q), page).Find(&posts).Error; err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return posts, nil
}

// UpdateLocked loads the post under a row lock, lets mutate inspect and
// change it, then writes the caption back in the same transaction. An error
// from mutate aborts without writing.
func (r *postRepository) UpdateLocked(ctx context.Context, id uint, mutate func(*models.Post) error) (*models.Post, error) {
	defer observability.TrackQuery("update", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&post, id).Error; err != nil {
			return notFoundOrStoreFailure(err, "Post", id)
		}
		if err := mutate(&post); err != nil {
			return err
		}
		if err := tx.Model(&post).Update("caption", post.Caption).Error; err != nil {
			return models.NewStoreFailure(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateExploreFeed(ctx)
	return &post, nil
}

// DeleteLocked removes the post and its comments in one transaction once
// check accepts the locked row. The deleted post is returned so the caller
// can release its blob after commit.
func (r *postRepository) DeleteLocked(ctx context.Context, id uint, check func(*models.Post) error) (*models.Post, error) {
	defer observability.TrackQuery("delete", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&post, id).Error; err != nil {
			return notFoundOrStoreFailure(err, "Post", id)
		}
		if err := check(&post); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewStoreFailure(err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return models.NewStoreFailure(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateExploreFeed(ctx)
	return &post, nil
}
