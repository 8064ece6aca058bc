package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
)

// MatchRepository owns matches and the chat thread that belongs to each match.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent records the match between a and b exactly once.
//
// Behavior:
//   - The pair is stored in canonical order.
//   - INSERT ... ON CONFLICT DO NOTHING inside a transaction; the caller whose
//     insert took effect gets created=true, everyone else gets the existing row.
//   - Only the creating transaction also opens the match's chat thread, so
//     the thread is created at most once per pair.
//   - A duplicate-key failure from a racing insert is treated as "already matched".
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b string, at time.Time) (*db.Match, bool, error) {
	userA, userB := db.CanonicalPair(a, b)
	match := db.Match{UserA: userA, UserB: userB, MatchedAt: at}
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
			DoNothing: true,
		}).Create(&match)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		thread := db.ChatThread{UserA: userA, UserB: userB, MatchID: &match.ID}
		// a thread opened by an earlier direct message gets linked to the match
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
			DoUpdates: clause.AssignmentColumns([]string{"match_id"}),
		}).Create(&thread).Error
	})
	if err != nil && !svcErr.IsDuplicateKey(err) {
		return nil, false, err
	}
	if err != nil {
		created = false
	}

	if created {
		return &match, true, nil
	}

	existing, err := r.Find(ctx, userA, userB)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Find loads the match between a and b in either argument order.
func (r *MatchRepository) Find(ctx context.Context, a, b string) (*db.Match, error) {
	userA, userB := db.CanonicalPair(a, b)
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", userA, userB).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MatchedAmong returns which of candidateIDs already form a match with viewerID,
// looking at both canonical positions. An empty candidate list issues no query.
func (r *MatchRepository) MatchedAmong(ctx context.Context, viewerID string, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Select("user_a", "user_b").
		Where("(user_a = ? AND user_b IN ?) OR (user_b = ? AND user_a IN ?)",
			viewerID, candidateIDs, viewerID, candidateIDs).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Counterpart(viewerID))
	}
	return ids, nil
}

// ListForUser returns up to limit matches involving userID, most recent first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string, limit int) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("matched_at DESC, id DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}
