package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/cache"
	"github.com/oggyb/us-matching/internal/events"
	"github.com/oggyb/us-matching/internal/storage"
)

// AppContext holds shared dependencies (DB, Redis, Logger, event fan-out, photo URLs)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Events     *events.Dispatcher
	Photos     storage.PhotoURLResolver
}

// New creates a new AppContext. Events starts with no listeners and photo URLs
// are served as stored until the caller installs something else.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Events:     events.NewDispatcher(logger),
		Photos:     storage.StaticResolver{},
	}
}
