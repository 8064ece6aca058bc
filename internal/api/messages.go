package api

import "time"

// Reaction actions.
const (
	ActionLike      = "like"
	ActionSuperlike = "superlike"
	ActionPass      = "pass"
)

// Like responses.
const (
	RespondAccept  = "accept"
	RespondDecline = "decline"
)

type PhotoView struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	Position  int    `json:"position"`
}

type ProfileView struct {
	UserID      string      `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Bio         string      `json:"bio,omitempty"`
	Age         int         `json:"age,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	LookingFor  string      `json:"looking_for,omitempty"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	RadiusKm    int         `json:"radius_km"`
	IsActive    bool        `json:"is_active"`
	Photos      []PhotoView `json:"photos"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Post is one feed entry: a profile shown through its primary photo.
type Post struct {
	ID       string       `json:"id"`
	UserID   string       `json:"user_id"`
	PhotoURL string       `json:"photo_url,omitempty"`
	Caption  string       `json:"caption,omitempty"`
	Profile  *ProfileView `json:"profile,omitempty"`
}

// TargetUserID resolves whose post this is.
func (p *Post) TargetUserID() string {
	if p == nil {
		return ""
	}
	if p.UserID != "" {
		return p.UserID
	}
	if p.Profile != nil {
		return p.Profile.UserID
	}
	return ""
}

type GetFeedPageRequest struct {
	// ViewerID is ignored when the call is authenticated.
	ViewerID string   `json:"viewer_id,omitempty"`
	Cursor   *string  `json:"cursor,omitempty"`
	RadiusKm *float64 `json:"radius_km,omitempty"`
}

type GetFeedPageResponse struct {
	Posts  []Post  `json:"posts"`
	Cursor *string `json:"cursor"`
}

type ReactRequest struct {
	ViewerID string `json:"viewer_id,omitempty"`
	Post     *Post  `json:"post"`
	Action   string `json:"action"`
}

type ReactResponse struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

type GetMatchesAndLikesRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type MatchSummary struct {
	MatchID       string      `json:"match_id"`
	MatchedAt     time.Time   `json:"matched_at"`
	LastMessageAt *time.Time  `json:"last_message_at,omitempty"`
	Profile       ProfileView `json:"profile"`
}

type LikeSummary struct {
	LikeID      string      `json:"like_id"`
	IsSuperlike bool        `json:"is_superlike"`
	CreatedAt   time.Time   `json:"created_at"`
	Profile     ProfileView `json:"profile"`
}

type GetMatchesAndLikesResponse struct {
	Matches       []MatchSummary `json:"matches"`
	IncomingLikes []LikeSummary  `json:"incoming_likes"`
	OutgoingLikes []LikeSummary  `json:"outgoing_likes"`
}

type RespondToLikeRequest struct {
	LikeID        string `json:"like_id"`
	Action        string `json:"action"`
	CurrentUserID string `json:"current_user_id,omitempty"`
}

type RespondToLikeResponse struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

type CountIncomingLikesRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type CountIncomingLikesResponse struct {
	Count int64 `json:"count"`
}
