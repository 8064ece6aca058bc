package matching

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/repository"
)

const (
	// PageSize is the fixed number of raw profile rows read per feed page.
	PageSize = 12
	// AggregateLimit caps each list returned by GetMatchesAndLikes.
	AggregateLimit = 50
)

var errUnauthenticated = errors.New("caller identity is required")

// ProfileStore is the profile read side the matching core needs.
type ProfileStore interface {
	ListFeedCandidates(ctx context.Context, viewerID string, offset, limit int) ([]db.Profile, error)
	GetByIDs(ctx context.Context, ids []string) ([]db.Profile, error)
}

// LikeStore holds directed like edges.
type LikeStore interface {
	Upsert(ctx context.Context, from, to string, superlike bool) error
	Exists(ctx context.Context, from, to string) (bool, error)
	LikedAmong(ctx context.Context, viewerID string, candidateIDs []string) ([]string, error)
	Get(ctx context.Context, id string) (*db.Like, error)
	Delete(ctx context.Context, id string) error
	Incoming(ctx context.Context, userID string, limit int) ([]db.Like, error)
	Outgoing(ctx context.Context, userID string, limit int) ([]db.Like, error)
	CountIncoming(ctx context.Context, userID string) (int64, error)
}

// MatchStore holds canonical match pairs.
type MatchStore interface {
	CreateIfAbsent(ctx context.Context, a, b string, at time.Time) (*db.Match, bool, error)
	MatchedAmong(ctx context.Context, viewerID string, candidateIDs []string) ([]string, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]db.Match, error)
}

// LikeCounter caches incoming-like counts.
type LikeCounter interface {
	GetIncomingLikeCount(ctx context.Context, userID string) (int64, bool, error)
	SetIncomingLikeCount(ctx context.Context, userID string, count int64) error
	InvalidateIncomingLikes(ctx context.Context, userID string) error
}

// Stores groups the persistence collaborators so tests can swap them.
type Stores struct {
	Profiles ProfileStore
	Likes    LikeStore
	Matches  MatchStore
	Counter  LikeCounter
}

// Service implements the matching gRPC API: feed, reactions, matches and likes.
// Each store call runs in its own session; the service keeps no state between
// requests.
type Service struct {
	appCtx *app.AppContext
	stores Stores
	now    func() time.Time
}

var _ api.MatchingServiceServer = (*Service)(nil)

// NewService creates the matching service on the GORM repositories and Redis
// cache from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	stores := Stores{
		Profiles: repository.NewProfileRepository(appCtx.DB),
		Likes:    repository.NewLikeRepository(appCtx.DB),
		Matches:  repository.NewMatchRepository(appCtx.DB),
	}
	if appCtx.RedisCache != nil {
		stores.Counter = appCtx.RedisCache
	}
	return NewWithStores(appCtx, stores)
}

// NewWithStores wires explicit collaborators.
func NewWithStores(appCtx *app.AppContext, stores Stores) *Service {
	return &Service{appCtx: appCtx, stores: stores, now: db.Now}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// caller returns the authenticated user when there is one, else the id the
// request carried (trusted internal callers and tests).
func caller(ctx context.Context, op, requested string) (string, error) {
	if id, ok := auth.UserIDFromContext(ctx); ok {
		return id, nil
	}
	if requested == "" {
		return "", svcErr.Store(op, http.StatusUnauthorized, errUnauthenticated)
	}
	return requested, nil
}

func (s *Service) invalidateIncoming(ctx context.Context, userID string) {
	if s.stores.Counter == nil {
		return
	}
	if err := s.stores.Counter.InvalidateIncomingLikes(ctx, userID); err != nil {
		s.log(ctx).Warn("incoming like counter invalidation failed", "user_id", userID, "err", err)
	}
}
