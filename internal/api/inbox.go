package api

import "time"

type ThreadView struct {
	ID            string     `json:"id"`
	MatchID       *string    `json:"match_id,omitempty"`
	Counterpart   string     `json:"counterpart_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	Unseen        int64      `json:"unseen"`
}

type MessageView struct {
	ID       string     `json:"id"`
	ThreadID string     `json:"thread_id"`
	SenderID string     `json:"sender_id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	SeenAt   *time.Time `json:"seen_at,omitempty"`
}

type MessagePage struct {
	Messages []MessageView `json:"messages"`
	Cursor   *string       `json:"cursor"`
}

type NotificationView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Link      *string    `json:"link,omitempty"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type NotificationPage struct {
	Notifications []NotificationView `json:"notifications"`
	Cursor        *string            `json:"cursor"`
}
