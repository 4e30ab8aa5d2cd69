package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simvault/orderdesk/internal/auth"
	"github.com/simvault/orderdesk/internal/config"
	"github.com/simvault/orderdesk/internal/db"
	"github.com/simvault/orderdesk/internal/dispatch"
	"github.com/simvault/orderdesk/internal/feed"
	"github.com/simvault/orderdesk/internal/kafka"
	"github.com/simvault/orderdesk/internal/lifecycle"
	"github.com/simvault/orderdesk/internal/logger"
	"github.com/simvault/orderdesk/internal/normalize"
	"github.com/simvault/orderdesk/internal/remote"
	"github.com/simvault/orderdesk/internal/repository/postgresql"
	"github.com/simvault/orderdesk/internal/scheduler"
	"github.com/simvault/orderdesk/internal/server"
	"github.com/simvault/orderdesk/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer log.Sync()

	cfg := config.Load()

	database, err := db.NewDb(ctx)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.Close()

	userRepo := postgresql.NewUserRepo(database)
	if err := userRepo.EnsureAdmin(ctx, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}
	dispatchRepo := postgresql.NewDispatchRepo(database)

	workingSet := store.New(log)
	normalizer := normalize.New(log)
	engine := lifecycle.Default()

	var tokens remote.TokenSource
	if cfg.AuthServiceURL != "" {
		tokens = auth.NewServiceTokenSource(cfg.AuthServiceURL, log)
	} else {
		tokens = auth.NewStaticTokenSource(cfg.AuthAPIKey)
	}

	remoteClient := remote.NewClient(cfg.RemoteBaseURL, tokens, log)
	dispatcher := dispatch.New(workingSet, engine, remoteClient, dispatchRepo, log)

	ticker := scheduler.New(cfg.TickInterval, workingSet, engine, dispatcher, log)
	consumer := feed.NewConsumer(cfg.KafkaBrokers, cfg.FeedTopic, cfg.FeedGroupID, normalizer, workingSet, log)

	producer := kafka.NewWriterProducer(cfg.KafkaBrokers, log)
	auditManager := server.NewAuditManager(producer, cfg.AuditTopic, 2, 5, 500*time.Millisecond, log)

	srv := server.New(ticker, dispatcher, userRepo, auditManager, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ticker.Run(gctx)
	})
	g.Go(func() error {
		defer consumer.Close()
		return consumer.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		log.Error("failed to close kafka producer", zap.Error(err))
	}
	log.Info("orderdesk stopped")
}
