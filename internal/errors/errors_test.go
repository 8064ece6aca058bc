package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/us-matching/internal/errors"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), svcErr.StatusClientClosedRequest},
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svcErr.Normalize("getFeedPage", tc.err)

			var se *svcErr.StoreError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.status, se.Status)
			assert.Equal(t, "getFeedPage", se.Op)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	assert.NoError(t, svcErr.Normalize("op", nil))

	original := svcErr.BadRequest("react", svcErr.ErrSelfReaction)
	assert.Same(t, original, svcErr.Normalize("other", original), "existing StoreError passes through")
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, svcErr.IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, svcErr.IsDuplicateKey(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, svcErr.IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, svcErr.IsDuplicateKey(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))

	assert.False(t, svcErr.IsDuplicateKey(nil))
	assert.False(t, svcErr.IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, svcErr.IsDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, svcErr.IsDuplicateKey(errors.New("boom")))

	assert.NoError(t, svcErr.IgnoreDuplicate(gorm.ErrDuplicatedKey))
	assert.Error(t, svcErr.IgnoreDuplicate(errors.New("boom")))
}

func TestMap(t *testing.T) {
	err := svcErr.Map(svcErr.BadRequest("react", svcErr.ErrSelfReaction))

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "cannot react to your own profile")

	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "react", info.GetMetadata()["op"])
	assert.Equal(t, "400", info.GetMetadata()["status"])

	internal, _ := status.FromError(svcErr.Map(errors.New("dial tcp: refused")))
	assert.Equal(t, codes.Internal, internal.Code())
	assert.NotContains(t, internal.Message(), "dial tcp")

	assert.NoError(t, svcErr.Map(nil))
}

func TestHTTPStatus(t *testing.T) {
	code, msg := svcErr.HTTPStatus(svcErr.Forbidden("respondToLike", svcErr.ErrNotRecipient))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, svcErr.ErrNotRecipient.Error(), msg)

	code, msg = svcErr.HTTPStatus(errors.New("db exploded"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, msg, "exploded")

	code, _ = svcErr.HTTPStatus(fmt.Errorf("wrapped: %w", svcErr.NotFound("getProfile", gorm.ErrRecordNotFound)))
	assert.Equal(t, http.StatusNotFound, code)
}
