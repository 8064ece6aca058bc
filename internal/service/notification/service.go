// Package notification stores per-user notifications and turns domain events
// (matches, chat messages) into them.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/events"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/repository"
	"github.com/oggyb/us-matching/internal/telemetry"
)

// PageSize is the number of notifications returned per List call.
const PageSize = 20

var ErrUnknownKind = errors.New("unknown notification kind")

var kinds = map[string]struct{}{
	db.KindMatch:   {},
	db.KindMessage: {},
	db.KindSystem:  {},
	db.KindSafety:  {},
}

// Service implements notifications. It is also a match and message listener.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.NotificationRepository
	now    func() time.Time
}

var (
	_ events.MatchListener   = (*Service)(nil)
	_ events.MessageListener = (*Service)(nil)
)

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewNotificationRepository(appCtx.DB),
		now:    db.Now,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

// Create stores a notification for userID.
func (s *Service) Create(ctx context.Context, userID, kind, title, body string, link *string) (*api.NotificationView, error) {
	const op = "createNotification"
	if userID == "" || title == "" {
		return nil, svcErr.BadRequestf(op, "user_id and title are required")
	}
	if _, ok := kinds[kind]; !ok {
		return nil, svcErr.BadRequest(op, fmt.Errorf("%w: %q", ErrUnknownKind, kind))
	}

	n := db.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Link:      link,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	view := notificationView(n)
	return &view, nil
}

// List pages through userID's notifications newest first, optionally unread only.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, cursor *string) (*api.NotificationPage, error) {
	const op = "listNotifications"
	ctx, span := telemetry.Tracer().Start(ctx, "notification.List")
	defer span.End()

	items, next, err := s.repo.List(ctx, userID, unreadOnly, cursor, PageSize)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	page := &api.NotificationPage{Notifications: make([]api.NotificationView, 0, len(items)), Cursor: next}
	for _, n := range items {
		page.Notifications = append(page.Notifications, notificationView(n))
	}
	return page, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	return n, svcErr.Normalize("unreadCount", err)
}

// MarkRead is idempotent; another user's notification is reported missing.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return svcErr.Normalize("markRead", s.repo.MarkRead(ctx, id, userID, s.now()))
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	return n, svcErr.Normalize("markAllRead", err)
}

// OnMatchCreated tells both users about their new match.
func (s *Service) OnMatchCreated(ctx context.Context, e events.MatchCreated) error {
	link := "/matches/" + e.MatchID
	var errs []error
	for _, pair := range [][2]string{{e.UserA, e.UserB}, {e.UserB, e.UserA}} {
		if _, err := s.Create(ctx, pair[0], db.KindMatch, "It's a match!", "You and "+pair[1]+" like each other.", &link); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnMessageSent tells the recipient about a new chat message.
func (s *Service) OnMessageSent(ctx context.Context, e events.MessageSent) error {
	link := "/threads/" + e.ThreadID
	_, err := s.Create(ctx, e.RecipientID, db.KindMessage, "New message from "+e.SenderID, e.Preview, &link)
	if err != nil {
		s.log(ctx).Warn("message notification failed", "message_id", e.MessageID, "err", err)
	}
	return err
}

func notificationView(n db.Notification) api.NotificationView {
	return api.NotificationView{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
