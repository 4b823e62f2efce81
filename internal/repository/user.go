// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"socialconnect/internal/cache"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for identities.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, page models.Page) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("select", "users")()
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOrStoreFailure(err, "User", id)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetForUpdate reads the full row, password hash included, from the primary
// and bypasses the cache.
func (r *userRepository) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOrStoreFailure(err, "User", id)
	}
	return &user, nil
}

// GetByIDs loads many identities in one query. Unknown ids are absent from the map.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	out := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	defer observability.TrackQuery("select_many", "users")()
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewStoreFailure(err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// GetByEmail returns nil, nil when no identity has the email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewStoreFailure(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no identity has the username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	key := cache.UsernameKey(username)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewStoreFailure(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewStoreFailure(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewStoreFailure(err)
	}
	cache.InvalidateUser(ctx, user.ID, user.Username)
	return nil
}

// Search matches query as a case-insensitive substring of username or full
// name, ordered by lower-cased username then id.
func (r *userRepository) Search(ctx context.Context, query string, page models.Page) ([]models.User, error) {
	defer observability.TrackQuery("search", "users")()

	pattern := likePattern(query)
	var users []models.User
	err := paginate(readDB(r.db).WithContext(ctx), page).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(full_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("LOWER(username) ASC").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return users, nil
}
