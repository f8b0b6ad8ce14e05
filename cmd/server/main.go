package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cfranzen/jobmate/internal/api"
	"github.com/cfranzen/jobmate/internal/app"
	"github.com/cfranzen/jobmate/internal/automation"
	"github.com/cfranzen/jobmate/internal/database"
	"github.com/cfranzen/jobmate/internal/services"
	"github.com/cfranzen/jobmate/internal/workflows"
	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/mail"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "jobmate:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}

	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	log := logger.WithModule("server")

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		Host:     hostFor(cfg.Database),
		Port:     portFor(cfg.Database),
		Name:     nameFor(cfg.Database),
		User:     userFor(cfg.Database),
		Password: passwordFor(cfg.Database),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Enabled:  cfg.Email.Enabled,
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		UseTLS:   cfg.Email.UseTLS,
		Timeout:  cfg.Email.Timeout,
	})
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	delivery := services.NewEmailDelivery(mailer)

	notifications, err := services.NewNotificationService(db, delivery)
	if err != nil {
		return err
	}

	settings, err := services.NewSettingsService(db)
	if err != nil {
		return err
	}

	scheduler, err := automation.NewScheduler(db, settings, notifications)
	if err != nil {
		return err
	}

	orchestrator, err := workflows.NewOrchestrator(db, notifications)
	if err != nil {
		return err
	}

	router, err := api.NewRouter(api.Deps{
		DB:           db,
		Scheduler:    scheduler,
		Orchestrator: orchestrator,
		Delivery:     delivery,
		Metrics:      cfg.Monitoring.Prometheus,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	var engine *automation.Engine
	if cfg.Automation.Enabled {
		engine, err = automation.NewEngine(scheduler,
			automation.WithSchedule(cfg.Automation.Schedule),
			automation.WithRunTimeout(cfg.Automation.RunTimeout),
		)
		if err != nil {
			return fmt.Errorf("init automation engine: %w", err)
		}
		if err := engine.Start(); err != nil {
			return fmt.Errorf("start automation engine: %w", err)
		}
		log.Info("automation engine started", zap.String("schedule", cfg.Automation.Schedule))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if engine != nil {
		select {
		case <-engine.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func hostFor(cfg app.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return cfg.MySQL.Host
	}
	return cfg.Postgres.Host
}

func portFor(cfg app.DatabaseConfig) int {
	if cfg.Driver == "mysql" {
		return cfg.MySQL.Port
	}
	return cfg.Postgres.Port
}

func nameFor(cfg app.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return cfg.MySQL.Database
	}
	return cfg.Postgres.Database
}

func userFor(cfg app.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return cfg.MySQL.Username
	}
	return cfg.Postgres.Username
}

func passwordFor(cfg app.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return cfg.MySQL.Password
	}
	return cfg.Postgres.Password
}
