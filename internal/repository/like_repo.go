package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/us-matching/internal/db"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to directed like edges between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Upsert inserts the edge from -> to, or refreshes its superlike flag when it already exists.
//
// Behavior:
//   - Unique (from_user, to_user) pair means repeating a like never creates a second edge.
//   - Creation time of an existing edge is left untouched.
//
// Example:
//
//	repo.Upsert(ctx, "alice", "bob", false) // alice liked bob
func (r *LikeRepository) Upsert(ctx context.Context, from, to string, superlike bool) error {
	like := db.Like{
		FromUser:    from,
		ToUser:      to,
		IsSuperlike: superlike,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user"}, {Name: "to_user"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_superlike"}),
		}).
		Create(&like).Error
}

// Exists checks whether from has liked to.
//
// Used for the reciprocal check after a like is written.
func (r *LikeRepository) Exists(ctx context.Context, from, to string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user = ? AND to_user = ?", from, to).
		Count(&count).Error
	return count > 0, err
}

// Get loads one like by id.
func (r *LikeRepository) Get(ctx context.Context, id string) (*db.Like, error) {
	var like db.Like
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

// Delete removes one like by id. Deleting a missing row is not an error.
func (r *LikeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Like{}).Error
}

// LikedAmong returns which of candidateIDs the viewer has already liked.
// An empty candidate list issues no query.
func (r *LikeRepository) LikedAmong(ctx context.Context, viewerID string, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user = ? AND to_user IN ?", viewerID, candidateIDs).
		Pluck("to_user", &ids).Error
	return ids, err
}

// Incoming returns up to limit likes received by userID, newest first.
func (r *LikeRepository) Incoming(ctx context.Context, userID string, limit int) ([]db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("to_user = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&likes).Error
	return likes, err
}

// Outgoing returns up to limit likes sent by userID, newest first.
func (r *LikeRepository) Outgoing(ctx context.Context, userID string, limit int) ([]db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("from_user = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&likes).Error
	return likes, err
}

// CountIncoming returns how many likes userID has received.
//
// Used in conjunction with Redis cache (DB is fallback).
func (r *LikeRepository) CountIncoming(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("to_user = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
