package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/config"
)

func newVerifier(secret, issuer string) *auth.Verifier {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = secret
	cfg.Auth.Issuer = issuer
	return auth.NewVerifier(cfg)
}

func TestVerifyRoundTrip(t *testing.T) {
	v := newVerifier("s3cret", "us-idp")
	token, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	sub, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestVerifyRejects(t *testing.T) {
	v := newVerifier("s3cret", "us-idp")

	expired, err := v.Issue("alice", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, err := newVerifier("other", "us-idp").Issue("alice", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	wrongIssuer, err := newVerifier("s3cret", "elsewhere").Issue("alice", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(wrongIssuer)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "us-idp"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Verify(noSub)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = newVerifier("", "").Verify(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := auth.BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = auth.BearerToken("")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
	_, err = auth.BearerToken("Basic abc")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = auth.BearerToken("Bearer ")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := newVerifier("s3cret", "")
	r := gin.New()
	r.GET("/me", auth.GinMiddleware(v), func(c *gin.Context) {
		id, _ := auth.GetUserID(c)
		fromCtx, _ := auth.UserIDFromContext(c.Request.Context())
		c.String(http.StatusOK, id+"|"+fromCtx)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := v.Issue("bob", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob|bob", w.Body.String())
}

func TestUnaryServerInterceptor(t *testing.T) {
	v := newVerifier("s3cret", "")
	interceptor := auth.UnaryServerInterceptor(v, "/grpc.health.v1.Health/")
	handler := func(ctx context.Context, req any) (any, error) {
		id, _ := auth.UserIDFromContext(ctx)
		return id, nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/React"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "", resp)

	token, err := v.Issue("carol", time.Hour)
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	resp, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/React"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "carol", resp)
}
