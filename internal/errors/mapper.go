// internal/errors/mapper.go
package errors

import (
	"net/http"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "us.matching"

// Map converts a StoreError (or anything normalizable into one) into a gRPC status.
// The original operation and HTTP-style status ride along as an ErrorInfo detail.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	se := toStoreError(err)
	code := grpcCode(se.Status)

	msg := se.Error()
	if code == codes.Internal {
		// raw store causes stay in logs
		msg = "internal store error"
	}

	st := status.New(code, msg)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason(se.Status),
		Domain: errorDomain,
		Metadata: map[string]string{
			"op":     se.Op,
			"status": strconv.Itoa(se.Status),
		},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// HTTPStatus returns the status the HTTP gateway should answer with, plus a
// client-safe message.
func HTTPStatus(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	se := toStoreError(err)
	if se.Status == 0 {
		return http.StatusInternalServerError, "something went wrong, please retry"
	}
	if se.Status >= http.StatusInternalServerError {
		return se.Status, "something went wrong, please retry"
	}
	if se.Cause != nil {
		return se.Status, se.Cause.Error()
	}
	return se.Status, http.StatusText(se.Status)
}

func grpcCode(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case StatusClientClosedRequest:
		return codes.Canceled
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func reason(httpStatus int) string {
	switch httpStatus {
	case http.StatusBadRequest:
		return "INVALID_INPUT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		return "STORE_ERROR"
	}
}
