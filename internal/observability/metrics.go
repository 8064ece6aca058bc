package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "us_http_requests_total",
			Help: "Total number of HTTP requests processed by the matching service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "us_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	grpcServerHandlingSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "gRPC handler latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"grpc_service", "grpc_method"},
	)
	reactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "us_reactions_total",
			Help: "Reactions recorded, by action.",
		},
		[]string{"action"},
	)
	matchesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "us_matches_created_total",
			Help: "Matches created, by the path that created them.",
		},
		[]string{"source"},
	)
	feedPostsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "us_feed_posts_returned",
			Help:    "Posts returned per feed page after filtering and exclusion.",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 12},
		},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "us_cache_lookups_total",
			Help: "Incoming-like counter cache lookups, by result.",
		},
		[]string{"result"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "us_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		grpcServerHandlingSeconds,
		reactionsTotal,
		matchesCreatedTotal,
		feedPostsReturned,
		cacheLookupsTotal,
		amqpPublishErrorsTotal,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := SplitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		grpcServerHandlingSeconds.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// SplitFullMethod splits "/pkg.Service/Method" into its service and method parts.
func SplitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncReaction(action string) {
	reactionsTotal.WithLabelValues(action).Inc()
}

func IncMatchCreated(source string) {
	matchesCreatedTotal.WithLabelValues(source).Inc()
}

func ObserveFeedPosts(n int) {
	feedPostsReturned.Observe(float64(n))
}

func IncCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

// AMQPPublishErrors exposes the publish error counter for assertions.
func AMQPPublishErrors() prometheus.Counter { return amqpPublishErrorsTotal }
