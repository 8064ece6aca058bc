package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification kinds.
const (
	KindMatch   = "match"
	KindMessage = "message"
	KindSystem  = "system"
	KindSafety  = "safety"
)

// Profile is the discovery record of a user.
//
// Indexes:
//   - idx_profiles_active_updated(is_active, updated_at DESC)
//     Serves the feed query (active profiles, most recently updated first).
type Profile struct {
	UserID      string     `gorm:"primaryKey;size:64"`
	DisplayName string     `gorm:"size:80;not null"`
	Bio         string     `gorm:"type:text"`
	Birthdate   *time.Time `gorm:"type:date"`
	Gender      string     `gorm:"size:16"`
	LookingFor  string     `gorm:"size:16"`
	Latitude    *float64
	Longitude   *float64
	RadiusKm    int `gorm:"not null;check:chk_profiles_radius,radius_km >= 0"`
	// no gorm default here: a default of true would turn an explicit false into true on insert
	IsActive  bool      `gorm:"not null;index:idx_profiles_active_updated,priority:1"`
	Photos    []Photo   `gorm:"foreignKey:UserID;references:UserID"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_profiles_active_updated,priority:2,sort:desc"`
}

// Age derives the age in whole years at now; 0 when no birthdate is known.
func (p Profile) Age(now time.Time) int {
	if p.Birthdate == nil {
		return 0
	}
	b := p.Birthdate.UTC()
	now = now.UTC()
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// PublicPhotos returns the photos that may appear in feeds and galleries,
// verification photos excluded, in display order.
func (p Profile) PublicPhotos() []Photo {
	out := make([]Photo, 0, len(p.Photos))
	for _, ph := range p.Photos {
		if !ph.IsVerification {
			out = append(out, ph)
		}
	}
	return out
}

// PrimaryPhoto picks the flagged primary public photo, else the first public one.
func (p Profile) PrimaryPhoto() (Photo, bool) {
	public := p.PublicPhotos()
	for _, ph := range public {
		if ph.IsPrimary {
			return ph, true
		}
	}
	if len(public) == 0 {
		return Photo{}, false
	}
	return public[0], true
}

// Photo belongs to exactly one profile.
type Photo struct {
	ID             string    `gorm:"primaryKey;size:36"`
	UserID         string    `gorm:"size:64;not null;index:idx_photos_user_position,priority:1"`
	URL            string    `gorm:"size:512;not null"`
	StorageKey     string    `gorm:"size:255"`
	IsPrimary      bool      `gorm:"not null"`
	IsVerification bool      `gorm:"not null"`
	Position       int       `gorm:"not null;index:idx_photos_user_position,priority:2"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (p *Photo) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Like is a directed edge from_user -> to_user.
//
// Indexes:
//   - idx_likes_pair(from_user, to_user) UNIQUE
//     One edge per direction; also serves the reciprocal lookup.
//   - idx_likes_to_created(to_user, created_at DESC)
//     "Who liked me" lists and counts.
type Like struct {
	ID          string    `gorm:"primaryKey;size:36"`
	FromUser    string    `gorm:"size:64;not null;uniqueIndex:idx_likes_pair,priority:1;check:chk_likes_not_self,from_user <> to_user"`
	ToUser      string    `gorm:"size:64;not null;uniqueIndex:idx_likes_pair,priority:2;index:idx_likes_to_created,priority:1"`
	IsSuperlike bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_likes_to_created,priority:2,sort:desc"`
}

func (l *Like) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Match is an undirected edge stored in canonical order (user_a < user_b).
type Match struct {
	ID            string    `gorm:"primaryKey;size:36"`
	UserA         string    `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:1;check:chk_matches_order,user_a < user_b"`
	UserB         string    `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:2;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	MatchedAt     time.Time `gorm:"not null;index"`
	LastMessageAt *time.Time
}

func (m *Match) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Counterpart returns the other side of the match, or "" when userID is not part of it.
func (m Match) Counterpart(userID string) string {
	switch userID {
	case m.UserA:
		return m.UserB
	case m.UserB:
		return m.UserA
	}
	return ""
}

// ChatThread binds two participants, stored in canonical order like Match.
type ChatThread struct {
	ID            string    `gorm:"primaryKey;size:36"`
	UserA         string    `gorm:"size:64;not null;uniqueIndex:idx_threads_pair,priority:1"`
	UserB         string    `gorm:"size:64;not null;uniqueIndex:idx_threads_pair,priority:2;index"`
	MatchID       *string   `gorm:"size:36"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (t *ChatThread) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// HasParticipant reports whether userID is one of the two thread members.
func (t ChatThread) HasParticipant(userID string) bool {
	return userID != "" && (t.UserA == userID || t.UserB == userID)
}

// Counterpart returns the other participant.
func (t ChatThread) Counterpart(userID string) string {
	if t.UserA == userID {
		return t.UserB
	}
	return t.UserA
}

// ChatMessage is append-only; only SeenAt is ever updated.
type ChatMessage struct {
	ID       string     `gorm:"primaryKey;size:36"`
	ThreadID string     `gorm:"size:36;not null;index:idx_messages_thread_sent,priority:1"`
	SenderID string     `gorm:"size:64;not null"`
	Body     string     `gorm:"type:text;not null"`
	SentAt   time.Time  `gorm:"not null;index:idx_messages_thread_sent,priority:2,sort:desc"`
	SeenAt   *time.Time
}

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Notification belongs to one user and only changes through read-state transitions.
type Notification struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:64;not null;index:idx_notifications_user_read,priority:1"`
	Kind      string     `gorm:"size:16;not null"`
	Title     string     `gorm:"size:160;not null"`
	Body      string     `gorm:"type:text"`
	Link      *string    `gorm:"size:255"`
	IsRead    bool       `gorm:"not null;index:idx_notifications_user_read,priority:2"`
	ReadAt    *time.Time
	CreatedAt time.Time  `gorm:"autoCreateTime;index:idx_notifications_user_read,priority:3,sort:desc"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// CanonicalPair orders two user ids so the lexicographically smaller one comes first.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Profile{}, &Photo{}, &Like{}, &Match{}, &ChatThread{}, &ChatMessage{}, &Notification{},
	}
}
