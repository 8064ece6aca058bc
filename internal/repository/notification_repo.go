package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/utils/pagination"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns one page of userID's notifications, newest first, optionally unread only.
func (r *NotificationRepository) List(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	paginationToken *string,
	limit int,
) ([]db.Notification, *string, error) {
	var items []db.Notification

	cursor := pagination.DecodeLenient(paginationToken)

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(items) > limit {
		last := items[limit-1]
		token, err := pagination.Encode(pagination.After(last.ID, last.CreatedAt))
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		items = items[:limit]
	}
	return items, nextToken, nil
}

// CountUnread returns how many unread notifications userID has.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips one notification to read. It is idempotent; a notification
// that does not exist or belongs to someone else yields gorm.ErrRecordNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	var n db.Notification
	if err := r.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND user_id = ?", id, userID).
		Take(&n).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
}

// MarkAllRead flips every unread notification of userID and reports how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}
