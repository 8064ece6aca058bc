package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/service/profile"
)

type handlers struct {
	d Deps
}

// userID returns the authenticated caller. The auth middleware guarantees one
// on /v1 routes; a missing id aborts with 401.
func userID(c *gin.Context) (string, bool) {
	id, ok := auth.GetUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Message: "unauthorized"})
	}
	return id, ok
}

func optionalQuery(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// --- matching ---

func (h *handlers) getFeed(c *gin.Context) {
	req := &api.GetFeedPageRequest{Cursor: optionalQuery(c, "cursor")}
	if raw := optionalQuery(c, "radius_km"); raw != nil {
		r, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			badRequest(c, "radius_km must be a number")
			return
		}
		req.RadiusKm = &r
	}

	resp, err := h.d.Matching.GetFeedPage(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

type reactBody struct {
	Post   *api.Post `json:"post" binding:"required"`
	Action string    `json:"action" binding:"required"`
}

func (h *handlers) react(c *gin.Context) {
	var body reactBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	resp, err := h.d.Matching.React(c.Request.Context(), &api.ReactRequest{Post: body.Post, Action: body.Action})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

func (h *handlers) getMatches(c *gin.Context) {
	resp, err := h.d.Matching.GetMatchesAndLikes(c.Request.Context(), &api.GetMatchesAndLikesRequest{})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

type respondBody struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

func (h *handlers) respondToLike(c *gin.Context) {
	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	resp, err := h.d.Matching.RespondToLike(c.Request.Context(), &api.RespondToLikeRequest{
		LikeID: c.Param("id"),
		Action: body.Action,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

func (h *handlers) countIncomingLikes(c *gin.Context) {
	resp, err := h.d.Matching.CountIncomingLikes(c.Request.Context(), &api.CountIncomingLikesRequest{})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

// --- profile ---

func (h *handlers) getProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	view, err := h.d.Profiles.GetProfile(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, view)
}

func (h *handlers) updateProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var in profile.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := h.d.Profiles.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, view)
}

func (h *handlers) setPrimaryPhoto(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.d.Profiles.SetPrimaryPhoto(c.Request.Context(), uid, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

func (h *handlers) deactivate(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.d.Profiles.Deactivate(c.Request.Context(), uid); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// --- chat ---

func (h *handlers) listThreads(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	threads, err := h.d.Chat.ListThreads(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"threads": threads})
}

type sendBody struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Body        string `json:"body"`
}

func (h *handlers) sendMessage(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := h.d.Chat.SendMessage(c.Request.Context(), uid, body.RecipientID, body.Body)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, msg)
}

type replyBody struct {
	Body string `json:"body"`
}

func (h *handlers) reply(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body replyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := h.d.Chat.Reply(c.Request.Context(), c.Param("id"), uid, body.Body)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, msg)
}

func (h *handlers) listMessages(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	page, err := h.d.Chat.ListMessages(c.Request.Context(), c.Param("id"), uid, optionalQuery(c, "cursor"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, page)
}

func (h *handlers) markSeen(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	n, err := h.d.Chat.MarkSeen(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"updated": n})
}

// --- notifications ---

func (h *handlers) listNotifications(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	page, err := h.d.Notifications.List(c.Request.Context(), uid, unreadOnly, optionalQuery(c, "cursor"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, page)
}

func (h *handlers) unreadCount(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	n, err := h.d.Notifications.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"count": n})
}

func (h *handlers) markRead(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.d.Notifications.MarkRead(c.Request.Context(), c.Param("id"), uid); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

func (h *handlers) markAllRead(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	n, err := h.d.Notifications.MarkAllRead(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"updated": n})
}
