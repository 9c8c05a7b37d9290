package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"parkeaya-panel/internal/api"
	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/config"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
	"parkeaya-panel/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	approvals, closeStore, err := openApprovalStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	client := remote.NewClient(remote.Options{
		BaseURL:        cfg.Remote.BaseURL,
		PanelID:        cfg.Remote.PanelID,
		ConnectTimeout: cfg.Remote.ConnectTimeout,
		ReadTimeout:    cfg.Remote.ReadTimeout,
	})
	retrier := remote.NewRetrier()

	sessions := repository.NewSessionRepository()
	notifier := service.NewNotifyService(cfg.Notify)
	authSvc := service.NewAuthService(client, retrier, sessions, cfg.Session.TTL)
	approvalSvc := service.NewApprovalService(approvals, client, retrier, notifier, cfg.Remote.PanelID)
	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(), client, retrier)
	parkingSvc := service.NewParkingService(client, retrier, cfg.Remote.OwnerID)
	registrationSvc := service.NewRegistrationService(settingsSvc, approvalSvc)
	dashboardSvc := service.NewDashboardService(parkingSvc, client, retrier)

	jobs := service.NewJobService(client, sessions)
	scheduler, err := jobs.Start(cfg.Health.Schedule)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	manager := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.CookieSecure)
	if cfg.Webhook.Secret == "" {
		logger.Warn("WEBHOOK_SECRET not set, approval webhooks are accepted unsigned")
	}

	router := api.NewRouter(api.Handlers{
		Auth:         api.NewAuthHandler(authSvc, manager),
		Approval:     api.NewApprovalHandler(approvalSvc),
		Registration: api.NewRegistrationHandler(registrationSvc),
		Settings:     api.NewSettingsHandler(settingsSvc),
		Parking:      api.NewOwnerParkingHandler(parkingSvc),
		Dashboard:    api.NewDashboardHandler(dashboardSvc),
		Webhook:      api.NewApprovalWebhookHandler(cfg.Webhook.Secret, approvalSvc),
		Monitor:      jobs,
	}, api.RouterOptions{
		Sessions:    manager,
		Resolver:    authSvc,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "port", cfg.Server.Port, "remote", cfg.Remote.BaseURL, "panel_id", cfg.Remote.PanelID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	notifier.Wait()
	return nil
}

// openApprovalStore returns the configured approval store and a function
// releasing it.
func openApprovalStore(cfg config.StoreConfig) (repository.ApprovalRepository, func(), error) {
	if cfg.Driver != "postgres" {
		return repository.NewMemoryApprovalRepository(), func() {}, nil
	}

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open DB: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	repo := repository.NewPostgresApprovalRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to prepare approval store: %w", err)
	}
	logger.Info("Using Postgres approval store")
	return repo, func() { conn.Close() }, nil
}
