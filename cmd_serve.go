package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/handlers"
	"github.com/dennissolver/LaunchReady-sub000/pkg/mcp"
	mcpauth "github.com/dennissolver/LaunchReady-sub000/pkg/mcp/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/mcp/tools"
	"github.com/dennissolver/LaunchReady-sub000/pkg/middleware"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

const shutdownTimeout = 15 * time.Second

var serveFlags struct {
	skipMigrations bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (REST API, voice webhook and MCP endpoint)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveFlags.skipMigrations, "skip-migrations", false, "Do not apply migrations on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("webhook_signature_check", cfg.Webhook.Secret != ""),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !serveFlags.skipMigrations {
		if err := migrate(db, logger); err != nil {
			return err
		}
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return fmt.Errorf("create JWKS client: %w", err)
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	tenantMiddleware := handlers.TenantMiddleware(database.WithTenantContext(db, logger))

	// Repositories
	projectRepo := repositories.NewProjectRepository()
	itemRepo := repositories.NewProtectionItemRepository()
	evidenceRepo := repositories.NewEvidenceRepository()

	// Services
	catalog := discovery.DefaultCatalog()
	scopes := services.NewTenantContextFunc(db)
	projectService := services.NewProjectService(projectRepo, logger)
	itemService := services.NewProtectionItemService(itemRepo)
	sessionLogger := services.NewSessionLogger(evidenceRepo, logger)
	reconciler := services.NewReconciler(itemRepo, database.NewTenantScopeProvider(db), services.ReconcilerOptions{
		Parallelism:    cfg.Discovery.Parallelism,
		FuzzyNameMatch: cfg.Discovery.FuzzyNameMatch,
	}, logger)
	discoveryService := services.NewDiscoveryService(
		projectService,
		discovery.NewClassifier(catalog),
		reconciler,
		sessionLogger,
		scopes,
		services.DiscoveryOptions{CompleteOnEmpty: cfg.Discovery.CompleteOnEmpty},
		logger,
	)

	// Routes
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, itemService, sessionLogger, catalog, logger).
		RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewDiscoveryHandler(discoveryService, logger).
		RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewVoiceWebhookHandler(discoveryService, cfg.Webhook, logger).RegisterRoutes(mux)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewDiscoveryServer(cfg.Version, &tools.DiscoveryToolDeps{
			Scopes:    scopes,
			Discovery: discoveryService,
			Items:     itemService,
			Catalog:   catalog,
		}, logger)
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, mcpauth.NewMiddleware(authService, logger))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting LaunchReady server",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
