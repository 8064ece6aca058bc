package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/us-matching/internal/auth"
	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/telemetry"
)

// RequestIDKey is the metadata key carrying a caller-supplied request id.
const RequestIDKey = "x-request-id"

// RecoveryUnaryInterceptor turns a panic into codes.Internal.
func RecoveryUnaryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx, log).Error("panic in grpc handler",
					"method", info.FullMethod,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingUnaryInterceptor attaches a request-scoped logger (request_id,
// trace_id, method) to ctx and logs every call once it completes.
func LoggingUnaryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDKey); len(vals) > 0 {
				requestID = vals[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, requestID))

		reqLog := log.With("request_id", requestID, "method", info.FullMethod)
		if traceID := telemetry.TraceID(ctx); traceID != "" {
			reqLog = reqLog.With("trace_id", traceID)
		}
		ctx = logger.WithContext(ctx, reqLog)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{"code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		switch code {
		case codes.OK:
			reqLog.Info("grpc request", attrs...)
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			reqLog.Error("grpc request", append(attrs, "err", err)...)
		default:
			reqLog.Warn("grpc request", append(attrs, "err", err)...)
		}
		return resp, err
	}
}

// UserLoggerUnaryInterceptor adds the authenticated user to the request logger.
// It must run after auth.
func UserLoggerUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if userID, ok := auth.UserIDFromContext(ctx); ok {
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", userID))
		}
		return handler(ctx, req)
	}
}

// ErrorMappingUnaryInterceptor converts service errors into gRPC statuses.
func ErrorMappingUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return resp, nil
	}
}
