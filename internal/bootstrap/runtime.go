// Package bootstrap wires the database, Redis and optional demo data for
// the command entry points.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialconnect/internal/blob"
	"socialconnect/internal/cache"
	"socialconnect/internal/config"
	"socialconnect/internal/database"
	"socialconnect/internal/middleware"
	"socialconnect/internal/models"
	"socialconnect/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo populates an empty development database with demo data.
	SeedDemo bool
	Blobs    blob.Store
}

// InitRuntime connects to DB and Redis and optionally seeds demo content.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client if Redis is unreachable.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(cfg, db, opts.Blobs); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedDemo(cfg *config.Config, db *gorm.DB, blobs blob.Store) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		middleware.Logger.Info("Skipping demo seed, users already present", slog.Int64("users", count))
		return nil
	}

	_, err := seed.Seed(context.Background(), db, blobs, seed.Options{
		NumUsers:       10,
		PostsPerUser:   3,
		StoriesPerUser: 1,
		FollowsPerUser: 3,
	})
	return err
}
