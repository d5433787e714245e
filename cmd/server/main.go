package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pinmark/pinmark/internal"
	"github.com/pinmark/pinmark/internal/cache"
	"github.com/pinmark/pinmark/internal/handler"
	"github.com/pinmark/pinmark/internal/maps"
	"github.com/pinmark/pinmark/internal/middleware"
	"github.com/pinmark/pinmark/internal/repository"
	"github.com/pinmark/pinmark/internal/service"
	"github.com/pinmark/pinmark/internal/storage"
	"github.com/pinmark/pinmark/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("database ready")

	// Initialize repository
	repo := repository.New(db)

	// Place cache: Redis when configured, otherwise lookups go straight to
	// the provider on every call.
	var placeCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisClient.Close()
		placeCache = cache.NewRedisCache(redisClient)
		logger.Info("place cache enabled")
	} else {
		logger.Warn("REDIS_URL not set, place caching disabled")
	}

	// Photo storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("storage ready", "provider", cfg.StorageProvider)

	// Probe independent dependencies in parallel before serving.
	g, warmCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := placeCache.Health(warmCtx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := store.Exists(warmCtx, ".healthcheck"); err != nil {
			return fmt.Errorf("storage check failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Maps provider client
	mapsClient := maps.NewHTTPClient(cfg.MapsAPIKey, cfg.MapsRequestTimeout, logger)

	// Initialize services
	userService := service.NewUserService(repo, logger, cfg.AdminEmails...)
	locationService := service.NewLocationService(repo, logger)
	placesService := service.NewPlacesService(mapsClient, placeCache, cfg.MapsDebounceWindow, cfg.PlaceCacheTTL, logger)
	photoService := service.NewPhotoService(repo, store, logger)
	layoutService := service.NewLayoutService(repo, logger)
	adminService := service.NewAdminService(repo, logger)

	// Background worker for thumbnail generation
	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		jobWorker, err = worker.New(repo, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Register(worker.NewThumbnailHandler(repo, store, logger))
		jobWorker.Start(ctx)
		defer jobWorker.Stop()
	}

	// Expired sessions are swept hourly.
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if err := userService.DeleteExpiredSessions(cleanupCtx); err != nil {
					logger.Error("session cleanup failed", "error", err)
				}
			}
		}
	}()

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsMw := middleware.NewMetricsMiddleware()
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	authLimiter := middleware.NewAuthRateLimiter(logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger)
	locationHandler := handler.NewLocationHandler(locationService, logger)
	placesHandler := handler.NewPlacesHandler(placesService, logger)
	photoHandler := handler.NewPhotoHandler(photoService, logger)
	layoutHandler := handler.NewLayoutHandler(layoutService, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Local storage serves uploaded files directly; R2 uses presigned URLs.
	if cfg.StorageProvider == "local" {
		fileFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", fileFS))
	}

	// Middleware stacks
	public := middleware.Stack(securityMw.Handler, loggingMw.Handler, metricsMw.Handler)
	requireUser := middleware.Stack(securityMw.Handler, loggingMw.Handler, metricsMw.Handler, authMw.WithUser, authMw.RequireUser)
	requireAdmin := middleware.Stack(securityMw.Handler, loggingMw.Handler, metricsMw.Handler, authMw.WithUser, authMw.RequireAdmin)

	// Auth
	mux.Handle("POST /api/auth/register", public(authLimiter.LimitRegister(http.HandlerFunc(authHandler.Register))))
	mux.Handle("POST /api/auth/login", public(authLimiter.LimitLogin(http.HandlerFunc(authHandler.Login))))
	mux.Handle("POST /api/auth/logout", public(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/verify", requireUser(http.HandlerFunc(authHandler.Verify)))
	mux.Handle("GET /api/auth/profile", requireUser(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("GET /api/auth/gps-permission", requireUser(http.HandlerFunc(authHandler.GetGPSPermission)))
	mux.Handle("PUT /api/auth/gps-permission", requireUser(http.HandlerFunc(authHandler.UpdateGPSPermission)))

	// Place search
	mux.Handle("GET /api/places/autocomplete", requireUser(http.HandlerFunc(placesHandler.Autocomplete)))
	mux.Handle("GET /api/places/{place_id}", requireUser(http.HandlerFunc(placesHandler.Details)))
	mux.Handle("GET /api/geocode/reverse", requireUser(http.HandlerFunc(placesHandler.ReverseGeocode)))

	// Saved locations
	mux.Handle("POST /api/locations", requireUser(http.HandlerFunc(locationHandler.Create)))
	mux.Handle("GET /api/locations", requireUser(http.HandlerFunc(locationHandler.List)))
	mux.Handle("GET /api/locations/{id}", requireUser(http.HandlerFunc(locationHandler.Get)))
	mux.Handle("PUT /api/locations/{id}", requireUser(http.HandlerFunc(locationHandler.Update)))
	mux.Handle("DELETE /api/locations/{id}", requireUser(http.HandlerFunc(locationHandler.Delete)))
	mux.Handle("GET /api/locations/saved/{place_id}", requireUser(http.HandlerFunc(locationHandler.IsSaved)))

	// Viewport markers
	mux.Handle("GET /api/markers", requireUser(http.HandlerFunc(locationHandler.Markers)))

	// Photos
	mux.Handle("POST /api/locations/{id}/photos", requireUser(http.HandlerFunc(photoHandler.Upload)))
	mux.Handle("DELETE /api/photos/{id}", requireUser(http.HandlerFunc(photoHandler.Delete)))
	mux.Handle("GET /api/photos/{id}/url", requireUser(http.HandlerFunc(photoHandler.URL)))

	// Layout
	mux.Handle("GET /api/layout", requireUser(http.HandlerFunc(layoutHandler.Get)))
	mux.Handle("PUT /api/layout", requireUser(http.HandlerFunc(layoutHandler.Apply)))

	// Admin panel
	mux.Handle("GET /api/admin/users", requireAdmin(http.HandlerFunc(adminHandler.ListUsers)))
	mux.Handle("PUT /api/admin/users/{id}/active", requireAdmin(http.HandlerFunc(adminHandler.SetUserActive)))
	mux.Handle("GET /api/admin/locations", requireAdmin(http.HandlerFunc(adminHandler.ListLocations)))
	mux.Handle("DELETE /api/admin/locations/{id}", requireAdmin(http.HandlerFunc(adminHandler.DeleteLocation)))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("graceful shutdown complete")
	return nil
}

// newStorage selects the photo storage backend from configuration.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case "r2":
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
