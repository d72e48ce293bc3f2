package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sumire/identity/internal/config"
	"github.com/sumire/identity/internal/handler"
	"github.com/sumire/identity/internal/provider"
	"github.com/sumire/identity/internal/provider/github"
	"github.com/sumire/identity/internal/repository"
	"github.com/sumire/identity/internal/service"
	"github.com/sumire/identity/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(ctx, db.DB); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	slog.Info("database connected")

	photos, err := storage.NewS3Store(ctx, storage.S3Config{
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		Bucket:       cfg.S3.Bucket,
		Region:       cfg.S3.Region,
		BaseEndpoint: cfg.S3.BaseEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init photo storage: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	replicator := service.NewReplicator(
		userRepo,
		service.NewProjectProvisioner(projectRepo, logger),
		service.NewAvatarIngestor(photos, service.AvatarConfig{
			Timeout:  cfg.AvatarTimeout,
			MaxBytes: cfg.AvatarMaxBytes,
		}, logger),
		logger,
	)

	providers := provider.NewRegistry()
	if cfg.GitHub.Enabled() {
		adapter := github.NewAdapter(github.Config{
			APIURL:   cfg.GitHub.APIURL,
			TokenURL: cfg.GitHub.TokenURL,
			AuthURL:  cfg.GitHub.AuthURL,
			Timeout:  cfg.ProviderTimeout,
		}, replicator)
		err := providers.Register(adapter, provider.LoginDetails{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			Scopes:       cfg.GitHub.Scopes,
			RedirectURL:  cfg.FrontendURL + "/auth/github/callback",
			Restrictions: provider.Restrictions{Organizations: cfg.GitHub.AllowedOrgs},
		})
		if err != nil {
			return fmt.Errorf("register github provider: %w", err)
		}
	}
	slog.Info("identity providers registered", "providers", providers.Names())

	authSvc := service.NewAuthService(userRepo, providers, service.AuthConfig{
		JWTSecret: cfg.JWTSecret,
	}, logger)

	authHandler := handler.NewAuthHandler(authSvc)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = handler.NewRequestValidator()

	e.Use(middleware.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/health", func(c echo.Context) error {
		return handler.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/:provider", authHandler.Redirect)
	auth.GET("/:provider/callback", authHandler.Callback)

	// Protected routes
	protected := api.Group("", handler.JWTAuth(authSvc))
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/:provider/synchronize", authHandler.Synchronize)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
