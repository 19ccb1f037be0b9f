package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/config"
	"nomorewaste/internal/db"
	"nomorewaste/internal/handlers"
	"nomorewaste/internal/notification"
	"nomorewaste/internal/queue"
	"nomorewaste/internal/routes"
	"nomorewaste/internal/worker"
	"nomorewaste/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseClient, err := config.InitFirebase(ctx)
	if err != nil {
		slog.Error("Failed to initialize Firebase", slog.Any("error", err))
		os.Exit(1)
	}
	defer firebaseClient.Close()

	store := db.NewStore(firebaseClient.Firestore)

	roles := auth.NewRoleSet(cfg.AdminRoles)
	identity := auth.Chain{
		auth.NewJWTIdentity(cfg.JWTSecret, roles),
		auth.NewFirebaseIdentity(firebaseClient.Auth, store, roles),
	}

	feed := notification.NewFeedBuilder(store, store, notification.FeedOptions{
		AdminChannel:      cfg.AdminChannelID,
		FetchLimit:        cfg.FeedFetchLimit,
		DonationScanLimit: cfg.FeedDonationScanLimit,
		Timeout:           cfg.FeedTimeout,
	})
	sender := notification.NewNotificationService(store)
	sweeper := notification.NewExpirySweeper(store, store, sender, cfg.AdminChannelID)

	queueClient := queue.NewClient(cfg.RedisAddr)
	defer queueClient.Close()

	w := worker.NewWorker(cfg.RedisAddr, cfg.WorkerConcurrency, cfg.ExpirySweepCron, sweeper)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Start(ctx); err != nil {
			slog.Error("Worker stopped with error", slog.Any("error", err))
			stop()
		}
	}()

	srv := server.NewServer(cfg, routes.Handlers{
		Notifications: handlers.NewNotificationHandler(feed, sender, queueClient),
		Donations:     handlers.NewDonationHandler(store, sender, store, cfg.AdminChannelID),
		Verification:  handlers.NewVerificationHandler(store, sender, store),
		Audit:         handlers.NewAuditHandler(store),
	}, identity)

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server stopped with error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down HTTP server", slog.Any("error", err))
	}
	<-workerDone
}
