package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"eventmanager/config"
	"eventmanager/internal/adapters/auth"
	"eventmanager/internal/adapters/cache"
	"eventmanager/internal/adapters/email"
	"eventmanager/internal/adapters/filestorage"
	httpdelivery "eventmanager/internal/delivery/http"
	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
	"eventmanager/internal/repository/postgres"
	"eventmanager/internal/services"
)

// @title Event Manager API
// @version 1.0
// @description Events, categories, registrations and event images.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.DBUrl, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.MigrateUp(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	imageCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	storage, err := filestorage.NewLocalStorage(cfg.FileStoragePath, cfg.ImageBaseURL)
	if err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		ReplyTo:     cfg.EmailReplyTo,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			Endpoint:           cfg.SESEndpoint,
			ConfigurationSet:   cfg.SESConfigurationSet,
			InsecureSkipVerify: cfg.SESInsecureSkipTLS,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	transactor := postgres.NewTransactor(db)
	eventRepo := postgres.NewEventRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	imageRepo := postgres.NewImageRepository(db)

	eventService := services.NewEventService(transactor, eventRepo, categoryRepo, participantRepo,
		storage, imageCache, logger, cfg.ContextTimeout)
	categoryService := services.NewCategoryService(transactor, categoryRepo, logger)
	registrationService := services.NewRegistrationService(transactor, eventRepo, participantRepo,
		auth.NewContextIdentity(), emailService, logger)
	imageService := services.NewImageService(transactor, eventRepo, imageRepo, storage, imageCache,
		cfg.ImageCacheTTL, logger)

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:         logger,
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		RateLimiter:    middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute),
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Events:         controllers.NewEventController(logger, eventService),
		Categories:     controllers.NewCategoryController(logger, categoryService),
		Registrations:  controllers.NewRegistrationController(logger, registrationService),
		Images:         controllers.NewImageController(logger, imageService, cfg.MaxUploadBytes),
		ImageURLPrefix: imageRoutePrefix(cfg.ImageBaseURL),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newCache(ctx context.Context, cfg *config.Config) (domain.Cache, func(), error) {
	if cfg.CacheProvider != "redis" {
		return cache.NewMemoryCache(cfg.MemoryCacheMaxEntries, cfg.ImageCacheTTL), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rc := cache.NewRedisCache(client, "eventmanager:")
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = client.Close() }, nil
}

// imageRoutePrefix returns the path under which stored image URLs are served, or "" when
// the base URL points at another host.
func imageRoutePrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host != "" {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if !strings.HasPrefix(p, "/") || p == "" {
		return ""
	}
	return p
}
