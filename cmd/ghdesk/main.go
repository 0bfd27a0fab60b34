package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/feldrim/ghdesk/internal/adapter/driven/bus"
	githubadapter "github.com/feldrim/ghdesk/internal/adapter/driven/github"
	sqliteadapter "github.com/feldrim/ghdesk/internal/adapter/driven/sqlite"
	httphandler "github.com/feldrim/ghdesk/internal/adapter/driving/http"
	"github.com/feldrim/ghdesk/internal/application"
	"github.com/feldrim/ghdesk/internal/config"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"refresh_window", cfg.RefreshWindow,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	credentialStore := sqliteadapter.NewCredentialRepo(db)
	userStore := sqliteadapter.NewUserRepo(db)
	issueStore := sqliteadapter.NewIssueRepo(db)
	settingsStore := sqliteadapter.NewSettingsRepo(db)

	broker := bus.NewBroker()

	// Clients are built per unit of work from the stored token, so a token
	// set through the API takes effect without a restart.
	factory := driven.ClientFactory(func(token string) driven.GitHubClient {
		return githubadapter.NewClient(token)
	})

	refreshSvc := application.NewRefreshService(
		credentialStore, userStore, issueStore, factory, broker, cfg.RefreshWindow,
	)
	pollSvc := application.NewPollService(refreshSvc, broker, cfg.PollInterval)
	go pollSvc.Start(ctx)

	credSvc := application.NewCredentialService(credentialStore, userStore, factory, broker)
	userSvc := application.NewUserService(userStore, credentialStore, factory, broker)
	issueSvc := application.NewIssueService(issueStore, credentialStore, factory, broker)

	apiHandler := httphandler.NewHandler(
		credSvc, userSvc, issueSvc, pollSvc, settingsStore, broker, slog.Default(),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("ghdesk started",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
	)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
