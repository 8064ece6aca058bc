// Package httpapi is the JSON/HTTP gateway in front of the services. Every
// /v1 route requires a bearer token; the token subject is the acting user.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/observability"
	"github.com/oggyb/us-matching/internal/service/chat"
	"github.com/oggyb/us-matching/internal/service/notification"
	"github.com/oggyb/us-matching/internal/service/profile"
)

// Deps are the collaborators the gateway routes to.
type Deps struct {
	Matching      api.MatchingServiceServer
	Profiles      *profile.Service
	Chat          *chat.Service
	Notifications *notification.Service
	Verifier      *auth.Verifier
	Logger        *slog.Logger
	ServiceName   string
	// Ready reports readiness for /healthz; nil means always ready.
	Ready func() error
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(d.ServiceName),
		requestLogger(d.Logger),
		recovery(),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, Response{Code: http.StatusServiceUnavailable, Message: err.Error()})
				return
			}
		}
		success(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	h := &handlers{d: d}
	v1 := router.Group("/v1", auth.GinMiddleware(d.Verifier), userLogger())

	v1.GET("/feed", h.getFeed)
	v1.POST("/reactions", h.react)
	v1.GET("/matches", h.getMatches)
	v1.POST("/likes/:id/respond", h.respondToLike)
	v1.GET("/likes/incoming/count", h.countIncomingLikes)

	v1.GET("/profile", h.getProfile)
	v1.PUT("/profile", h.updateProfile)
	v1.POST("/profile/photos/:id/primary", h.setPrimaryPhoto)
	v1.POST("/profile/deactivate", h.deactivate)

	v1.GET("/threads", h.listThreads)
	v1.POST("/messages", h.sendMessage)
	v1.POST("/threads/:id/messages", h.reply)
	v1.GET("/threads/:id/messages", h.listMessages)
	v1.POST("/threads/:id/seen", h.markSeen)

	v1.GET("/notifications", h.listNotifications)
	v1.GET("/notifications/unread-count", h.unreadCount)
	v1.POST("/notifications/:id/read", h.markRead)
	v1.POST("/notifications/read-all", h.markAllRead)

	return router
}

// NewHTTPServer wraps handler with CORS and binds it to the configured address.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	origins := cfg.HTTP.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(handler)

	return &http.Server{
		Addr:              cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
