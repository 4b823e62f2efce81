package repository

import (
	"context"

	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository stores the directed follow graph. Each edge is a single
// row indexed in both directions, so one insert or delete updates the
// forward and reverse adjacency together.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowingOf(ctx context.Context, userID uint) ([]uint, error)
	FollowersOf(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	defer observability.TrackQuery("insert", "follows")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Create(&edge).Error; err != nil {
			switch {
			case isUniqueConstraintError(err):
				return models.NewConflictError("Already following this user")
			case isCheckConstraintError(err):
				return models.NewInvalidOperationError("You cannot follow yourself")
			default:
				return models.NewStoreFailure(err)
			}
		}
		return nil
	})
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	defer observability.TrackQuery("delete", "follows")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return models.NewStoreFailure(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Follow", followingID)
		}
		return nil
	})
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewStoreFailure(err)
	}
	return count > 0, nil
}

// FollowingOf returns the ids userID follows, ascending. Served by the
// forward index.
func (r *followRepository) FollowingOf(ctx context.Context, userID uint) ([]uint, error) {
	defer observability.TrackQuery("following", "follows")()

	ids := []uint{}
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("following_id ASC").
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return ids, nil
}

// FollowersOf returns the ids following userID, ascending. Served by the
// reverse index.
func (r *followRepository) FollowersOf(ctx context.Context, userID uint) ([]uint, error) {
	defer observability.TrackQuery("followers", "follows")()

	ids := []uint{}
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return ids, nil
}
