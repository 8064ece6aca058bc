package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/us-matching/internal/logger"
)

// Routing keys on the events exchange.
const (
	RouteMatchCreated = "match.created"
	RouteMessageSent  = "message.sent"
)

// MatchCreated is raised once per unordered pair, by the caller whose insert created the match.
type MatchCreated struct {
	MatchID   string    `json:"match_id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	MatchedAt time.Time `json:"matched_at"`
	// Source is "reaction" or "respond".
	Source string `json:"source"`
}

// MessageSent is raised after a chat message is stored.
type MessageSent struct {
	MessageID   string    `json:"message_id"`
	ThreadID    string    `json:"thread_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	SentAt      time.Time `json:"sent_at"`
	Preview     string    `json:"preview"`
}

type MatchListener interface {
	OnMatchCreated(ctx context.Context, e MatchCreated) error
}

type MessageListener interface {
	OnMessageSent(ctx context.Context, e MessageSent) error
}

// Dispatcher fans events out to registered listeners. Listener failures are
// logged and never reach the caller: the state change they follow is already committed.
type Dispatcher struct {
	mu       sync.RWMutex
	matches  []MatchListener
	messages []MessageListener
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.L()
	}
	return &Dispatcher{log: log}
}

func (d *Dispatcher) OnMatch(l MatchListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matches = append(d.matches, l)
}

func (d *Dispatcher) OnMessage(l MessageListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, l)
}

func (d *Dispatcher) MatchCreated(ctx context.Context, e MatchCreated) {
	if d == nil {
		return
	}
	d.mu.RLock()
	listeners := append([]MatchListener(nil), d.matches...)
	d.mu.RUnlock()

	for _, l := range listeners {
		if err := l.OnMatchCreated(ctx, e); err != nil {
			logger.FromContext(ctx, d.log).Warn("match listener failed", "match_id", e.MatchID, "err", err)
		}
	}
}

func (d *Dispatcher) MessageSent(ctx context.Context, e MessageSent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	listeners := append([]MessageListener(nil), d.messages...)
	d.mu.RUnlock()

	for _, l := range listeners {
		if err := l.OnMessageSent(ctx, e); err != nil {
			logger.FromContext(ctx, d.log).Warn("message listener failed", "message_id", e.MessageID, "err", err)
		}
	}
}

// PublishingListener forwards events to the message broker.
type PublishingListener struct {
	pub Publisher
}

func NewPublishingListener(pub Publisher) *PublishingListener {
	return &PublishingListener{pub: pub}
}

func (p *PublishingListener) OnMatchCreated(ctx context.Context, e MatchCreated) error {
	return p.pub.Publish(ctx, RouteMatchCreated, e)
}

func (p *PublishingListener) OnMessageSent(ctx context.Context, e MessageSent) error {
	return p.pub.Publish(ctx, RouteMessageSent, e)
}
