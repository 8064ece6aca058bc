// Package chat implements direct messaging between two users. A match opens a
// thread; a first message to someone opens one implicitly.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/db"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/events"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/repository"
	"github.com/oggyb/us-matching/internal/telemetry"
)

const (
	// MaxBodyBytes bounds a single message body.
	MaxBodyBytes = 4000
	// PageSize is the number of messages returned per ListMessages call.
	PageSize = 30

	previewRunes = 80
)

var (
	ErrEmptyBody     = errors.New("message body is empty")
	ErrBodyTooLong   = errors.New("message body exceeds 4000 bytes")
	ErrSelfMessage   = errors.New("cannot message yourself")
	ErrMissingTarget = errors.New("recipient is required")
)

// Service implements chat on top of ChatRepository.
type Service struct {
	appCtx *app.AppContext
	chats  *repository.ChatRepository
	now    func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		chats:  repository.NewChatRepository(appCtx.DB),
		now:    db.Now,
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if len(body) > MaxBodyBytes {
		return ErrBodyTooLong
	}
	return nil
}

// SendMessage delivers body from senderID to recipientID, opening their thread
// if this is the first message between them.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, body string) (*api.MessageView, error) {
	const op = "sendMessage"
	ctx, span := telemetry.Tracer().Start(ctx, "chat.SendMessage")
	defer span.End()

	switch {
	case recipientID == "":
		return nil, svcErr.BadRequest(op, ErrMissingTarget)
	case recipientID == senderID:
		return nil, svcErr.BadRequest(op, ErrSelfMessage)
	}
	if err := validateBody(body); err != nil {
		return nil, svcErr.BadRequest(op, err)
	}

	thread, err := s.chats.GetOrCreateThread(ctx, senderID, recipientID)
	if err != nil {
		s.log(ctx).Error("GetOrCreateThread failed", "err", err)
		return nil, svcErr.Normalize(op, err)
	}
	return s.appendTo(ctx, op, thread, senderID, body)
}

// Reply appends to an existing thread. Only its two participants may write.
func (s *Service) Reply(ctx context.Context, threadID, senderID, body string) (*api.MessageView, error) {
	const op = "reply"
	ctx, span := telemetry.Tracer().Start(ctx, "chat.Reply")
	defer span.End()

	if err := validateBody(body); err != nil {
		return nil, svcErr.BadRequest(op, err)
	}
	thread, err := s.participantThread(ctx, op, threadID, senderID)
	if err != nil {
		return nil, err
	}
	return s.appendTo(ctx, op, thread, senderID, body)
}

func (s *Service) appendTo(ctx context.Context, op string, thread *db.ChatThread, senderID, body string) (*api.MessageView, error) {
	msg, err := s.chats.AppendMessage(ctx, thread, senderID, body, s.now())
	if err != nil {
		s.log(ctx).Error("AppendMessage failed", "thread_id", thread.ID, "err", err)
		return nil, svcErr.Normalize(op, err)
	}

	s.appCtx.Events.MessageSent(ctx, events.MessageSent{
		MessageID:   msg.ID,
		ThreadID:    thread.ID,
		SenderID:    senderID,
		RecipientID: thread.Counterpart(senderID),
		SentAt:      msg.SentAt,
		Preview:     preview(body),
	})
	view := messageView(*msg)
	return &view, nil
}

func (s *Service) participantThread(ctx context.Context, op, threadID, userID string) (*db.ChatThread, error) {
	thread, err := s.chats.GetThread(ctx, threadID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	if !thread.HasParticipant(userID) {
		return nil, svcErr.Forbidden(op, svcErr.ErrNotParticipant)
	}
	return thread, nil
}

// ListThreads returns the user's threads, most recently active first, each
// with its unseen message count.
func (s *Service) ListThreads(ctx context.Context, userID string) ([]api.ThreadView, error) {
	const op = "listThreads"
	ctx, span := telemetry.Tracer().Start(ctx, "chat.ListThreads")
	defer span.End()

	threads, err := s.chats.ListThreads(ctx, userID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	unseen, err := s.chats.CountUnseenByThread(ctx, ids, userID)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}

	out := make([]api.ThreadView, 0, len(threads))
	for _, t := range threads {
		out = append(out, api.ThreadView{
			ID:            t.ID,
			MatchID:       t.MatchID,
			Counterpart:   t.Counterpart(userID),
			LastMessageAt: t.LastMessageAt,
			Unseen:        unseen[t.ID],
		})
	}
	span.SetAttributes(attribute.Int("chat.threads", len(out)))
	return out, nil
}

// ListMessages pages through a thread newest first, PageSize at a time.
func (s *Service) ListMessages(ctx context.Context, threadID, userID string, cursor *string) (*api.MessagePage, error) {
	const op = "listMessages"
	ctx, span := telemetry.Tracer().Start(ctx, "chat.ListMessages")
	defer span.End()

	if _, err := s.participantThread(ctx, op, threadID, userID); err != nil {
		return nil, err
	}
	msgs, next, err := s.chats.ListMessages(ctx, threadID, cursor, PageSize)
	if err != nil {
		return nil, svcErr.Normalize(op, err)
	}
	page := &api.MessagePage{Messages: make([]api.MessageView, 0, len(msgs)), Cursor: next}
	for _, m := range msgs {
		page.Messages = append(page.Messages, messageView(m))
	}
	return page, nil
}

// MarkSeen stamps seen_at on the other participant's unseen messages and
// reports how many changed.
func (s *Service) MarkSeen(ctx context.Context, threadID, userID string) (int64, error) {
	const op = "markSeen"
	ctx, span := telemetry.Tracer().Start(ctx, "chat.MarkSeen")
	defer span.End()

	if _, err := s.participantThread(ctx, op, threadID, userID); err != nil {
		return 0, err
	}
	n, err := s.chats.MarkSeen(ctx, threadID, userID, s.now())
	if err != nil {
		return 0, svcErr.Normalize(op, err)
	}
	return n, nil
}

func messageView(m db.ChatMessage) api.MessageView {
	return api.MessageView{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		SenderID: m.SenderID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		SeenAt:   m.SeenAt,
	}
}

func preview(body string) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	return string([]rune(body)[:previewRunes]) + "…"
}
