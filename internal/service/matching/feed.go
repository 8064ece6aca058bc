package matching

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/observability"
	"github.com/oggyb/us-matching/internal/service/views"
	"github.com/oggyb/us-matching/internal/telemetry"
	"github.com/oggyb/us-matching/internal/utils/pagination"
)

// GetFeedPage returns one page of posts for the viewer.
//
// Behavior:
//   - Reads PageSize active profiles other than the viewer, most recently updated first.
//   - Drops profiles without a public photo, then anything the viewer already
//     liked or matched with.
//   - The next cursor is present only when the filtered page was full; heavy
//     exclusion can therefore end the feed early.
//   - radius_km is validated but not applied: distance is not computed.
//   - Any store failure fails the whole page.
//
// Example:
//
//	svc.GetFeedPage(ctx, &api.GetFeedPageRequest{Cursor: ptr("12")})
func (s *Service) GetFeedPage(ctx context.Context, req *api.GetFeedPageRequest) (resp *api.GetFeedPageResponse, err error) {
	const op = "getFeedPage"
	ctx, span := telemetry.Tracer().Start(ctx, "matching.GetFeedPage")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	viewerID, err := caller(ctx, op, req.ViewerID)
	if err != nil {
		return nil, err
	}
	if req.RadiusKm != nil && *req.RadiusKm < 0 {
		return nil, svcErr.BadRequestf(op, "radius_km must be >= 0")
	}

	offset := pagination.DecodeOffset(req.Cursor)
	span.SetAttributes(attribute.Int("feed.offset", offset))
	s.log(ctx).Debug("GetFeedPage called", "viewer", viewerID, "offset", offset)

	rows, err := s.stores.Profiles.ListFeedCandidates(ctx, viewerID, offset, PageSize)
	if err != nil {
		s.log(ctx).Error("ListFeedCandidates failed", "err", err)
		return nil, svcErr.Normalize(op, err)
	}

	candidates := FilterCandidates(rows, viewerID)
	if len(candidates) == 0 {
		observability.ObserveFeedPosts(0)
		return &api.GetFeedPageResponse{Posts: []api.Post{}, Cursor: nil}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}
	excluded, err := s.ResolveExclusions(ctx, viewerID, ids)
	if err != nil {
		s.log(ctx).Error("ResolveExclusions failed", "err", err)
		return nil, svcErr.Normalize(op, err)
	}

	now := s.now()
	posts := make([]api.Post, 0, len(candidates))
	for _, c := range candidates {
		if excluded.Contains(c.UserID) {
			continue
		}
		posts = append(posts, views.Post(ctx, s.appCtx.Photos, c, now))
	}

	next := pagination.EncodeOffset(pagination.NextOffset(offset, PageSize, len(candidates)))
	observability.ObserveFeedPosts(len(posts))
	s.log(ctx).Debug("GetFeedPage result", "posts", len(posts), "excluded", len(candidates)-len(posts), "has_next", next != nil)

	return &api.GetFeedPageResponse{Posts: posts, Cursor: next}, nil
}

// FilterCandidates drops the viewer, inactive profiles and profiles without a
// public photo. Order is preserved.
func FilterCandidates(rows []db.Profile, viewerID string) []db.Profile {
	out := make([]db.Profile, 0, len(rows))
	for _, p := range rows {
		if p.UserID == viewerID || !p.IsActive {
			continue
		}
		if len(p.PublicPhotos()) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Exclusions are the candidates the viewer must not see again.
type Exclusions struct {
	Liked   map[string]struct{}
	Matched map[string]struct{}
}

func (e Exclusions) Contains(id string) bool {
	if _, ok := e.Liked[id]; ok {
		return true
	}
	_, ok := e.Matched[id]
	return ok
}

// ResolveExclusions finds which candidates the viewer already liked and which
// already form a match with the viewer. An empty candidate list issues no query.
func (s *Service) ResolveExclusions(ctx context.Context, viewerID string, candidateIDs []string) (Exclusions, error) {
	out := Exclusions{Liked: map[string]struct{}{}, Matched: map[string]struct{}{}}
	if len(candidateIDs) == 0 {
		return out, nil
	}

	var liked, matched []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		liked, err = s.stores.Likes.LikedAmong(gctx, viewerID, candidateIDs)
		return err
	})
	g.Go(func() error {
		var err error
		matched, err = s.stores.Matches.MatchedAmong(gctx, viewerID, candidateIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return Exclusions{}, err
	}

	for _, id := range liked {
		out.Liked[id] = struct{}{}
	}
	for _, id := range matched {
		out.Matched[id] = struct{}{}
	}
	return out, nil
}
