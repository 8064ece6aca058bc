package server

import (
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/observability"
)

// healthPrefix is reachable without a token so probes keep working.
const healthPrefix = "/grpc.health.v1.Health/"

// NewGRPCServer builds a gRPC server with the standard interceptor chain and
// registers all provided services plus health.
// Reflection is not registered: the matching messages are JSON structs with
// no protobuf descriptors to serve.
//
// Interceptor order (outermost first): recovery, logging, metrics, auth, user logger, error mapping.
// Errors are mapped innermost so logging and metrics see the final status code.
func NewGRPCServer(log *slog.Logger, verifier *auth.Verifier, registrars ...Registrar) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RecoveryUnaryInterceptor(log),
			LoggingUnaryInterceptor(log),
			observability.GRPCServerMetricsUnaryInterceptor(),
			auth.UnaryServerInterceptor(verifier, healthPrefix),
			UserLoggerUnaryInterceptor(),
			ErrorMappingUnaryInterceptor(),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return grpcServer, healthServer
}

// Listen opens the configured gRPC address.
func Listen(cfg *config.Config) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return lis, nil
}
