package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"farmacia/m/internal/config"
	"farmacia/m/internal/database"
	"farmacia/m/internal/logging"
	"farmacia/m/internal/migrations"
	"farmacia/m/internal/seed"
	"farmacia/m/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	if err := migrations.Run(db, cfg.DatabaseDriver, logger); err != nil {
		logger.WithError(err).Fatal("could not migrate database")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.SeedCSV != "" {
		if _, err := seed.LoadMedications(ctx, db, cfg.SeedCSV, logger); err != nil {
			logger.WithError(err).Warn("medication catalog not loaded")
		}
	}

	svc, err := service.New(cfg, db, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not build service")
	}
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	logger.Info("server stopped")
}
