package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/utils/pagination"
)

// ChatRepository stores chat threads and their messages.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// GetOrCreateThread returns the thread between a and b, creating it on first use.
// Concurrent callers converge on the same row through the unique pair.
func (r *ChatRepository) GetOrCreateThread(ctx context.Context, a, b string) (*db.ChatThread, error) {
	userA, userB := db.CanonicalPair(a, b)

	thread := db.ChatThread{UserA: userA, UserB: userB}
	var match db.Match
	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_a = ? AND user_b = ?", userA, userB).
		Take(&match).Error
	switch {
	case err == nil:
		thread.MatchID = &match.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
			DoNothing: true,
		}).
		Create(&thread).Error; err != nil {
		return nil, err
	}

	var stored db.ChatThread
	if err := r.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", userA, userB).
		Take(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetThread loads a thread by id; gorm.ErrRecordNotFound when absent.
func (r *ChatRepository) GetThread(ctx context.Context, id string) (*db.ChatThread, error) {
	var t db.ChatThread
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListThreads returns every thread userID takes part in, most recently active first.
func (r *ChatRepository) ListThreads(ctx context.Context, userID string) ([]db.ChatThread, error) {
	var threads []db.ChatThread
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC, id DESC").
		Find(&threads).Error
	return threads, err
}

// AppendMessage stores a message and bumps last_message_at on the thread and
// on the linked match, in one transaction.
func (r *ChatRepository) AppendMessage(ctx context.Context, thread *db.ChatThread, senderID, body string, at time.Time) (*db.ChatMessage, error) {
	msg := db.ChatMessage{
		ThreadID: thread.ID,
		SenderID: senderID,
		Body:     body,
		SentAt:   at,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.ChatThread{}).
			Where("id = ?", thread.ID).
			Update("last_message_at", at).Error; err != nil {
			return err
		}
		return tx.Model(&db.Match{}).
			Where("user_a = ? AND user_b = ?", thread.UserA, thread.UserB).
			Update("last_message_at", at).Error
	})
	if err != nil {
		return nil, err
	}
	thread.LastMessageAt = &at
	return &msg, nil
}

// ListMessages returns one page of a thread, newest first.
//
// Behavior:
//   - Ordered by sent_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken; a next token is
//     returned only when more rows exist.
func (r *ChatRepository) ListMessages(
	ctx context.Context,
	threadID string,
	paginationToken *string,
	limit int,
) ([]db.ChatMessage, *string, error) {
	var messages []db.ChatMessage

	cursor := pagination.DecodeLenient(paginationToken)

	query := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("sent_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(sent_at < ? OR (sent_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, err := pagination.Encode(pagination.After(last.ID, last.SentAt))
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// MarkSeen stamps seen_at on every unseen message in the thread that readerID did not send.
func (r *ChatRepository) MarkSeen(ctx context.Context, threadID, readerID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.ChatMessage{}).
		Where("thread_id = ? AND sender_id <> ? AND seen_at IS NULL", threadID, readerID).
		Update("seen_at", at)
	return res.RowsAffected, res.Error
}

// CountUnseenByThread returns, per thread, how many messages addressed to
// readerID are unseen. Threads with nothing unseen are absent from the map.
// One grouped query covers all threads.
func (r *ChatRepository) CountUnseenByThread(ctx context.Context, threadIDs []string, readerID string) (map[string]int64, error) {
	counts := make(map[string]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ThreadID string
		Unseen   int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.ChatMessage{}).
		Select("thread_id, COUNT(*) AS unseen").
		Where("thread_id IN ? AND sender_id <> ? AND seen_at IS NULL", threadIDs, readerID).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ThreadID] = row.Unseen
	}
	return counts, nil
}
