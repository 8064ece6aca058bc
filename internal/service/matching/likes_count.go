package matching

import (
	"context"

	"github.com/oggyb/us-matching/internal/api"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/observability"
	"github.com/oggyb/us-matching/internal/telemetry"
)

// CountIncomingLikes returns how many likes the user has received.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:incoming:count:<user>), refreshing its TTL.
//  2. On a miss or a cache error, falls back to the likes table.
//  3. On DB fetch, stores the count with a 1h TTL.
//
// Reactions and declines drop the cached value.
func (s *Service) CountIncomingLikes(ctx context.Context, req *api.CountIncomingLikesRequest) (resp *api.CountIncomingLikesResponse, err error) {
	const op = "countIncomingLikes"
	ctx, span := telemetry.Tracer().Start(ctx, "matching.CountIncomingLikes")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	userID, err := caller(ctx, op, req.UserID)
	if err != nil {
		return nil, err
	}

	if s.stores.Counter != nil {
		n, ok, cerr := s.stores.Counter.GetIncomingLikeCount(ctx, userID)
		switch {
		case cerr != nil:
			observability.IncCacheLookup("error")
			s.log(ctx).Warn("incoming like counter read failed", "user_id", userID, "err", cerr)
		case ok:
			observability.IncCacheLookup("hit")
			return &api.CountIncomingLikesResponse{Count: n}, nil
		default:
			observability.IncCacheLookup("miss")
		}
	}

	count, err := s.stores.Likes.CountIncoming(ctx, userID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}

	if s.stores.Counter != nil {
		if err := s.stores.Counter.SetIncomingLikeCount(ctx, userID, count); err != nil {
			s.log(ctx).Warn("incoming like counter write failed", "user_id", userID, "err", err)
		}
	}
	return &api.CountIncomingLikesResponse{Count: count}, nil
}
