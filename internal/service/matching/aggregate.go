package matching

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/service/views"
	"github.com/oggyb/us-matching/internal/telemetry"
)

// GetMatchesAndLikes returns the user's matches, the likes they received and
// the likes they sent, each capped at AggregateLimit and newest first.
//
// Behavior:
//   - The three lists are read concurrently; any failure fails the whole call.
//   - Counterpart profiles are loaded in one batch.
//   - Entries whose counterpart is missing or deactivated are dropped.
//   - Every call reads the store on its own context; nothing is shared
//     between concurrent requests.
//
// Example:
//
//	svc.GetMatchesAndLikes(ctx, &api.GetMatchesAndLikesRequest{UserID: "alice"})
func (s *Service) GetMatchesAndLikes(ctx context.Context, req *api.GetMatchesAndLikesRequest) (resp *api.GetMatchesAndLikesResponse, err error) {
	const op = "getMatchesAndLikes"
	ctx, span := telemetry.Tracer().Start(ctx, "matching.GetMatchesAndLikes")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	userID, err := caller(ctx, op, req.UserID)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Debug("GetMatchesAndLikes called", "user", userID)

	out, err := s.aggregate(ctx, userID)
	if err != nil {
		s.log(ctx).Error("GetMatchesAndLikes failed", "err", err)
		return nil, svcErr.Normalize(op, err)
	}
	s.log(ctx).Debug("GetMatchesAndLikes result",
		"matches", len(out.Matches),
		"incoming", len(out.IncomingLikes),
		"outgoing", len(out.OutgoingLikes),
	)
	return out, nil
}

func (s *Service) aggregate(ctx context.Context, userID string) (*api.GetMatchesAndLikesResponse, error) {
	var (
		matches            []db.Match
		incoming, outgoing []db.Like
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.stores.Matches.ListForUser(gctx, userID, AggregateLimit)
		return err
	})
	g.Go(func() error {
		var err error
		incoming, err = s.stores.Likes.Incoming(gctx, userID, AggregateLimit)
		return err
	})
	g.Go(func() error {
		var err error
		outgoing, err = s.stores.Likes.Outgoing(gctx, userID, AggregateLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, m := range matches {
		add(m.Counterpart(userID))
	}
	for _, l := range incoming {
		add(l.FromUser)
	}
	for _, l := range outgoing {
		add(l.ToUser)
	}

	profiles := make(map[string]db.Profile, len(ids))
	if len(ids) > 0 {
		rows, err := s.stores.Profiles.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range rows {
			if p.IsActive {
				profiles[p.UserID] = p
			}
		}
	}

	now := s.now()
	resp := &api.GetMatchesAndLikesResponse{
		Matches:       make([]api.MatchSummary, 0, len(matches)),
		IncomingLikes: make([]api.LikeSummary, 0, len(incoming)),
		OutgoingLikes: make([]api.LikeSummary, 0, len(outgoing)),
	}
	for _, m := range matches {
		p, ok := profiles[m.Counterpart(userID)]
		if !ok {
			continue
		}
		resp.Matches = append(resp.Matches, api.MatchSummary{
			MatchID:       m.ID,
			MatchedAt:     m.MatchedAt,
			LastMessageAt: m.LastMessageAt,
			Profile:       views.Profile(ctx, s.appCtx.Photos, p, now),
		})
	}
	likeSummaries := func(likes []db.Like, counterpart func(db.Like) string) []api.LikeSummary {
		out := make([]api.LikeSummary, 0, len(likes))
		for _, l := range likes {
			p, ok := profiles[counterpart(l)]
			if !ok {
				continue
			}
			out = append(out, api.LikeSummary{
				LikeID:      l.ID,
				IsSuperlike: l.IsSuperlike,
				CreatedAt:   l.CreatedAt,
				Profile:     views.Profile(ctx, s.appCtx.Photos, p, now),
			})
		}
		return out
	}
	resp.IncomingLikes = likeSummaries(incoming, func(l db.Like) string { return l.FromUser })
	resp.OutgoingLikes = likeSummaries(outgoing, func(l db.Like) string { return l.ToUser })
	return resp, nil
}

// RespondToLike lets the recipient of a like accept or decline it.
//
// Behavior:
//   - decline deletes the like; declining a like that no longer exists succeeds.
//   - accept records the reverse like and creates the match once per pair.
//   - Only the recipient may respond (403 otherwise).
//
// Example:
//
//	svc.RespondToLike(ctx, &api.RespondToLikeRequest{LikeID: id, Action: "accept"})
func (s *Service) RespondToLike(ctx context.Context, req *api.RespondToLikeRequest) (resp *api.RespondToLikeResponse, err error) {
	const op = "respondToLike"
	ctx, span := telemetry.Tracer().Start(ctx, "matching.RespondToLike")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	userID, err := caller(ctx, op, req.CurrentUserID)
	if err != nil {
		return nil, err
	}
	if req.Action != api.RespondAccept && req.Action != api.RespondDecline {
		return nil, svcErr.BadRequest(op, svcErr.ErrInvalidAction)
	}
	if req.LikeID == "" {
		return nil, svcErr.BadRequestf(op, "like_id is required")
	}
	s.log(ctx).Debug("RespondToLike called", "user", userID, "like_id", req.LikeID, "action", req.Action)

	like, err := s.stores.Likes.Get(ctx, req.LikeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if req.Action == api.RespondDecline {
			return &api.RespondToLikeResponse{}, nil
		}
		return nil, svcErr.NotFound(op, err)
	}
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	if like.ToUser != userID {
		return nil, svcErr.Forbidden(op, svcErr.ErrNotRecipient)
	}

	if req.Action == api.RespondDecline {
		if err := s.stores.Likes.Delete(ctx, like.ID); err != nil {
			return nil, svcErr.Normalize(op, err)
		}
		s.invalidateIncoming(ctx, userID)
		return &api.RespondToLikeResponse{}, nil
	}

	if err := s.stores.Likes.Upsert(ctx, userID, like.FromUser, false); err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	s.invalidateIncoming(ctx, like.FromUser)

	match, err := s.createMatch(ctx, userID, like.FromUser, "respond")
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	return &api.RespondToLikeResponse{Matched: true, MatchID: match.ID}, nil
}
