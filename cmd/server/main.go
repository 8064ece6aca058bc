package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/us-matching/internal/app"
	"github.com/oggyb/us-matching/internal/auth"
	"github.com/oggyb/us-matching/internal/cache"
	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/events"
	"github.com/oggyb/us-matching/internal/httpapi"
	"github.com/oggyb/us-matching/internal/logger"
	"github.com/oggyb/us-matching/internal/server"
	"github.com/oggyb/us-matching/internal/service/chat"
	"github.com/oggyb/us-matching/internal/service/matching"
	"github.com/oggyb/us-matching/internal/service/notification"
	"github.com/oggyb/us-matching/internal/service/profile"
	"github.com/oggyb/us-matching/internal/storage"
	"github.com/oggyb/us-matching/internal/telemetry"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		log.Error("failed to init telemetry", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		log.Error("failed to migrate db", "err", err)
		os.Exit(1)
	}

	// Init Redis; the like counter degrades to the database when it is down
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, counting likes from the database", "err", err)
	}

	appCtx := app.New(database, redisCache, log)

	photos, err := storage.NewPhotoURLResolver(ctx, cfg)
	if err != nil {
		log.Error("failed to init photo storage", "err", err)
		os.Exit(1)
	}
	appCtx.Photos = photos

	// Event fan-out: broker first, then in-app notifications
	publisher := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
	log.Info("event publisher ready", "mode", events.PublisherMode(publisher), "reason", events.PublisherNoopReason(publisher))
	publishing := events.NewPublishingListener(publisher)
	appCtx.Events.OnMatch(publishing)
	appCtx.Events.OnMessage(publishing)

	notifications := notification.NewService(appCtx)
	appCtx.Events.OnMatch(notifications)
	appCtx.Events.OnMessage(notifications)

	matchingSvc := matching.NewService(appCtx)

	verifier := auth.NewVerifier(cfg)
	if !verifier.Enabled() {
		log.Warn("JWT_SECRET is not set, every authenticated call will be rejected")
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, 50, nil); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// gRPC
	grpcServer, _ := server.NewGRPCServer(log, verifier, matching.NewRegistrar(appCtx).WithService(matchingSvc))
	lis, err := server.Listen(cfg)
	if err != nil {
		log.Error("failed to listen", "err", err)
		os.Exit(1)
	}
	go func() {
		log.Info("starting gRPC server", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server stopped", "err", err)
			stop()
		}
	}()

	// HTTP gateway
	router := httpapi.NewRouter(httpapi.Deps{
		Matching:      matchingSvc,
		Profiles:      profile.NewService(appCtx),
		Chat:          chat.NewService(appCtx),
		Notifications: notifications,
		Verifier:      verifier,
		Logger:        log,
		ServiceName:   cfg.App.Name,
		Ready: func() error {
			sqlDB, err := database.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(context.Background())
		},
	})
	httpServer := httpapi.NewHTTPServer(cfg, router)
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "err", err)
	}
	grpcServer.GracefulStop()
	if err := publisher.Close(); err != nil {
		log.Warn("publisher close", "err", err)
	}
	if err := redisCache.Close(); err != nil {
		log.Warn("redis close", "err", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("telemetry shutdown", "err", err)
	}
}
