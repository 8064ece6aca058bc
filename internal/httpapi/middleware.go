package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/telemetry"
)

const requestIDHeader = "X-Request-ID"

// requestLogger attaches a request-scoped logger (request_id, trace_id) to the
// request context and logs each request once it completes.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := log.With("request_id", requestID)
		if traceID := telemetry.TraceID(c.Request.Context()); traceID != "" {
			reqLog = reqLog.With("trace_id", traceID)
		}
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		// the request may have gained a user id on the way
		l := logger.FromContext(c.Request.Context(), reqLog)
		if status >= http.StatusInternalServerError {
			l.Error("http request", attrs...)
		} else {
			l.Info("http request", attrs...)
		}
	}
}

// userLogger adds the authenticated user to the request logger. Runs after auth.
func userLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := auth.GetUserID(c); ok {
			ctx := c.Request.Context()
			c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", userID)))
		}
		c.Next()
	}
}

// recovery turns a panic into a 500 envelope.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error("panic recovered", "panic", fmt.Sprint(r))
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
						Code:    http.StatusInternalServerError,
						Message: "internal server error",
					})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
