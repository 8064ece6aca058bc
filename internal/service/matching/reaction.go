package matching

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/events"
	"github.com/oggyb/us-matching/internal/observability"
	"github.com/oggyb/us-matching/internal/telemetry"
)

// React records the viewer's reaction to a post.
//
// Behavior:
//   - pass: nothing is stored; the profile may come back in a later feed.
//   - like / superlike: the target must resolve and differ from the viewer
//     (checked before any store access). The like edge is upserted, so
//     repeating it is a no-op.
//   - The reciprocal edge is read after the like is committed. If present, the
//     match is created once per pair; a racing duplicate is absorbed.
//   - Only the caller that actually created the match raises match.created.
//
// Example:
//
//	svc.React(ctx, &api.ReactRequest{Post: &api.Post{UserID: "bob"}, Action: "like"})
func (s *Service) React(ctx context.Context, req *api.ReactRequest) (resp *api.ReactResponse, err error) {
	const op = "react"
	ctx, span := telemetry.Tracer().Start(ctx, "matching.React")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	viewerID, err := caller(ctx, op, req.ViewerID)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case api.ActionPass:
		observability.IncReaction(api.ActionPass)
		return &api.ReactResponse{}, nil
	case api.ActionLike, api.ActionSuperlike:
	default:
		return nil, svcErr.BadRequest(op, svcErr.ErrInvalidAction)
	}

	targetID := req.Post.TargetUserID()
	if targetID == "" {
		return nil, svcErr.BadRequest(op, svcErr.ErrUnresolvedTarget)
	}
	if targetID == viewerID {
		return nil, svcErr.BadRequest(op, svcErr.ErrSelfReaction)
	}
	span.SetAttributes(attribute.String("reaction.action", req.Action))

	s.log(ctx).Debug("React called", "viewer", viewerID, "target", targetID, "action", req.Action)

	if err := s.stores.Likes.Upsert(ctx, viewerID, targetID, req.Action == api.ActionSuperlike); err != nil {
		s.log(ctx).Error("like upsert failed", "err", err)
		return nil, svcErr.Normalize(op, err)
	}
	observability.IncReaction(req.Action)
	s.invalidateIncoming(ctx, targetID)

	reciprocal, err := s.stores.Likes.Exists(ctx, targetID, viewerID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	if !reciprocal {
		return &api.ReactResponse{}, nil
	}

	match, err := s.createMatch(ctx, viewerID, targetID, "reaction")
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	return &api.ReactResponse{Matched: true, MatchID: match.ID}, nil
}

// createMatch stores the pair and, for the creating caller only, notifies listeners.
func (s *Service) createMatch(ctx context.Context, a, b, source string) (*db.Match, error) {
	match, created, err := s.stores.Matches.CreateIfAbsent(ctx, a, b, s.now())
	if err != nil {
		return nil, err
	}
	if created {
		observability.IncMatchCreated(source)
		s.log(ctx).Info("match created", "match_id", match.ID, "user_a", match.UserA, "user_b", match.UserB, "source", source)
		s.appCtx.Events.MatchCreated(ctx, events.MatchCreated{
			MatchID:   match.ID,
			UserA:     match.UserA,
			UserB:     match.UserB,
			MatchedAt: match.MatchedAt,
			Source:    source,
		})
	}
	return match, nil
}
