package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/ragdesk/internal/config"
	"github.com/dgallion1/ragdesk/internal/desk/web"
	"github.com/dgallion1/ragdesk/internal/ragclient"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := ragclient.NewClient(ragclient.DefaultBaseURL)

	sessions := web.NewSessionStore(cfg.SessionTTL)
	sessions.StartSweeper(ctx, web.SweepInterval, log)

	srv := web.NewServer(client, sessions, log, cfg.MaxUploadBytes)

	// Backend calls can run for minutes on large uploads.
	httpServer := &http.Server{
		Addr:         ":" + cfg.DeskPort,
		Handler:      srv,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting ragdesk", "port", cfg.DeskPort, "backend", ragclient.DefaultBaseURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
