package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ginUserKey is where the gin middleware stores the user id.
const ginUserKey = "user_id"

// GinMiddleware rejects requests without a valid bearer token and stores the
// subject both in the gin context and in the request context.
func GinMiddleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		userID, err := v.Verify(token)
		if err != nil {
			abortUnauthorized(c, ErrInvalidToken.Error())
			return
		}

		c.Set(ginUserKey, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// GetUserID returns the user id stored by GinMiddleware.
func GetUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ginUserKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": msg,
		"data":    nil,
	})
}

// UnaryServerInterceptor authenticates every unary call except the ones whose
// full method starts with one of skipPrefixes (health checks).
func UnaryServerInterceptor(v *Verifier, skipPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		for _, p := range skipPrefixes {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		token, err := BearerToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		userID, err := v.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, ErrInvalidToken.Error())
		}
		return handler(WithUserID(ctx, userID), req)
	}
}
