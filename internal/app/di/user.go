package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	useradapters "startup_boilerplate/internal/feature/user/adapters"
	"startup_boilerplate/internal/feature/user/usecase"
	"startup_boilerplate/internal/platform/cache"
)

// NewUserRepository returns the gorm user repository, wrapped in the Redis cache when available.
func NewUserRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) usecase.UserRepository {
	repo := useradapters.NewUserGorm(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingUserRepository(rdb, ttl, repo, "users")
}
