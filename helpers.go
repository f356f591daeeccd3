package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/config"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
	"github.com/dennissolver/LaunchReady-sub000/pkg/retry"
)

// loadConfig reads the --config file. A missing default file falls back to
// environment variables so containers can run without one.
func loadConfig() (*config.Config, error) {
	path := rootFlags.configPath
	if path == config.DefaultPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return config.Load(path, Version)
}

// bootstrap loads config and builds the logger. Callers must Sync the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// openDatabase connects to PostgreSQL, retrying while the server is still
// coming up. Bad credentials and unknown databases fail on the first attempt.
func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	dbConfig := &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}

	var db *database.DB
	attempt := 0
	err := retry.DoIfRetryable(ctx, retry.StartupConfig(), func() error {
		attempt++
		conn, err := database.NewConnection(ctx, dbConfig)
		if err != nil {
			logger.Warn("Database connection attempt failed",
				zap.Int("attempt", attempt),
				zap.String("url", logging.SanitizeConnectionString(dbConfig.URL)),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Database))
	return db, nil
}

// migrate applies pending migrations over the pool.
func migrate(db *database.DB, logger *zap.Logger) error {
	if err := database.RunMigrations(db.SQL(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// readText returns text when set, otherwise the contents of file, otherwise
// everything on in.
func readText(text, file string, in io.Reader) (string, error) {
	if text != "" && file != "" {
		return "", errors.New("--text and --file are mutually exclusive")
	}
	if text != "" {
		return text, nil
	}

	var (
		b   []byte
		err error
	)
	if file != "" {
		b, err = os.ReadFile(file)
	} else {
		b, err = io.ReadAll(in)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
