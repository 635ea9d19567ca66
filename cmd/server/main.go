package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/takehome/internal/api"
	"github.com/hireloop/takehome/internal/app"
	"github.com/hireloop/takehome/internal/app/maintenance"
	"github.com/hireloop/takehome/internal/database"
	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/services"
	"github.com/hireloop/takehome/pkg/logger"
	"github.com/hireloop/takehome/pkg/mail"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "takehome: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("configure mailer: %w", err)
	}

	ghClient := github.NewClient(cfg.GitHub.ClientConfig())
	if !ghClient.Configured() {
		logger.Warn("github credentials missing; provisioning and diff reads will fail until configured")
	}

	tokens, err := services.NewTokenService(db,
		services.WithTokenLength(cfg.Invites.TokenLength),
	)
	if err != nil {
		return err
	}

	lifecycle, err := services.NewLifecycleService(db, ghClient, tokens,
		services.WithDefaultTokenTTL(cfg.Invites.DefaultTokenTTL),
	)
	if err != nil {
		return err
	}

	invites, err := services.NewInviteService(db, mailer,
		services.WithSlugLength(cfg.Invites.SlugLength),
		services.WithPublicBaseURL(cfg.Server.PublicBaseURL),
	)
	if err != nil {
		return err
	}

	assessments, err := services.NewAssessmentService(db)
	if err != nil {
		return err
	}

	review, err := services.NewReviewService(db, ghClient, mailer,
		services.WithAdminAddress(cfg.Email.AdminAddr),
	)
	if err != nil {
		return err
	}

	cleaner := maintenance.NewCleaner(db, maintenance.Config{
		TokenRetention: cfg.Maintenance.TokenRetention,
		TokenSchedule:  cfg.Maintenance.TokenSchedule,
		AuditRetention: cfg.Maintenance.AuditRetention,
		AuditSchedule:  cfg.Maintenance.AuditSchedule,
	})
	if err := cleaner.Start(); err != nil {
		return err
	}
	defer cleaner.Stop()

	router := api.NewRouter(cfg, db, api.Services{
		Assessments: assessments,
		Invites:     invites,
		Lifecycle:   lifecycle,
		Review:      review,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func databaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}

	switch {
	case cfg.Database.Postgres.Enabled:
		dbCfg.Driver = "postgres"
		dbCfg.Host = cfg.Database.Postgres.Host
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = cfg.Database.Postgres.Database
		dbCfg.User = cfg.Database.Postgres.Username
		dbCfg.Password = cfg.Database.Postgres.Password
	case cfg.Database.MySQL.Enabled:
		dbCfg.Driver = "mysql"
		dbCfg.Host = cfg.Database.MySQL.Host
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = cfg.Database.MySQL.Database
		dbCfg.User = cfg.Database.MySQL.Username
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}
