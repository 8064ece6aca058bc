package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/db"
)

// ErrVerificationPhoto is returned when a verification photo is promoted to primary.
var ErrVerificationPhoto = errors.New("verification photos cannot be primary")

// ProfileRepository reads and writes profiles together with their photos.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

func orderedPhotos(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC, created_at ASC")
}

// ListFeedCandidates returns one raw feed page: active profiles other than the
// viewer, most recently updated first, photos preloaded.
func (r *ProfileRepository) ListFeedCandidates(ctx context.Context, viewerID string, offset, limit int) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Preload("Photos", orderedPhotos).
		Where("is_active = ? AND user_id <> ?", true, viewerID).
		Order("updated_at DESC, user_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// GetByIDs batch-loads profiles with photos. Missing ids are simply absent.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]db.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Preload("Photos", orderedPhotos).
		Where("user_id IN ?", ids).
		Find(&profiles).Error
	return profiles, err
}

// Get loads a single profile; gorm.ErrRecordNotFound when absent.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Preload("Photos", orderedPhotos).
		Where("user_id = ?", userID).
		Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies column changes and bumps updated_at, which moves the profile
// to the top of other users' feeds.
func (r *ProfileRepository) Update(ctx context.Context, userID string, changes map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ?", userID).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Create inserts a new profile (used on first PUT for a user).
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Deactivate hides the profile from every feed.
func (r *ProfileRepository) Deactivate(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]any{"is_active": false})
}

// SetPrimaryPhoto promotes photoID and clears the previous primary in one transaction.
//
// Behavior:
//   - photo must belong to userID, else gorm.ErrRecordNotFound.
//   - verification photos are refused with ErrVerificationPhoto.
func (r *ProfileRepository) SetPrimaryPhoto(ctx context.Context, userID, photoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo db.Photo
		if err := tx.Where("id = ? AND user_id = ?", photoID, userID).Take(&photo).Error; err != nil {
			return err
		}
		if photo.IsVerification {
			return ErrVerificationPhoto
		}

		if err := tx.Model(&db.Photo{}).
			Where("user_id = ? AND is_primary = ? AND is_verification = ?", userID, true, false).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Photo{}).
			Where("id = ?", photo.ID).
			Update("is_primary", true).Error; err != nil {
			return err
		}
		return tx.Model(&db.Profile{}).
			Where("user_id = ?", userID).
			Update("updated_at", db.Now()).Error
	})
}
