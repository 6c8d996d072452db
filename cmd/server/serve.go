package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/cache"
	"skyroute-backend/internal/handlers"
	"skyroute-backend/internal/health"
	h "skyroute-backend/internal/http"
	"skyroute-backend/internal/middleware"
	"skyroute-backend/internal/monitoring"
	"skyroute-backend/internal/repositories"
	"skyroute-backend/internal/sequence"
	"skyroute-backend/internal/services"
	"skyroute-backend/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
	serveCmd.Flags().Bool("skip-migrations", false, "do not apply pending migrations on start")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	if skip, _ := cmd.Flags().GetBool("skip-migrations"); !skip {
		if err := runMigrations(ctx, rt); err != nil {
			return err
		}
	}

	// Redis is optional: without it the dashboard is uncached and
	// allocation runs without the distributed lock.
	redisClient, err := cache.Init(cfg)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
	}
	defer redisClient.Close()

	// Repositories
	entryRepo := repositories.NewEntryRepository(rt.pool)
	sequenceRepo := repositories.NewSequenceRepository(rt.pool)
	operatorRepo := repositories.NewOperatorRepository(rt.pool)
	loginLogRepo := repositories.NewLoginLogRepository(rt.pool)
	archiveRepo := repositories.NewSheetArchiveRepository(rt.pool)

	// Sequence allocation
	var allocator sequence.Allocator
	switch cfg.Sequence.Strategy {
	case "scan":
		allocator = sequence.NewScanAllocator(entryRepo)
	default:
		allocator = sequence.NewCounterAllocator(sequenceRepo)
	}
	log.Info("sequence allocator ready", "strategy", cfg.Sequence.Strategy)

	// Services
	entryService := services.NewEntryService(entryRepo, allocator, log)
	if locker := cache.NewLocker(redisClient, cfg.Sequence.LockTTL); locker != nil {
		entryService.SetLocker(locker)
	}

	dashboardService := services.NewDashboardService(entryRepo, redisClient, log)
	entryService.AddObserver(dashboardService)

	feed := monitoring.NewFeed(log, cfg.Server.CorsAllowedOrigins)
	go feed.Run(ctx)
	entryService.AddObserver(feed)

	sheetService := services.NewSheetService(archiveRepo, log)
	objects, err := storage.NewS3Store(ctx, cfg)
	switch {
	case err != nil:
		log.Warn("object storage unavailable, sheet archive disabled", "error", err)
	case objects != nil:
		sheetService.SetObjectStore(objects)
		log.Info("sheet archive enabled", "bucket", cfg.Storage.Bucket)
	}

	exportService := services.NewExportService(entryService)
	operatorService := services.NewOperatorService(operatorRepo, loginLogRepo, auth.NewJWTManager(cfg), log)

	// Handlers
	router := h.NewRouter(
		handlers.NewEntryHandler(entryService, sheetService, exportService, log),
		handlers.NewAuthHandler(operatorService, handlers.CookieSettings{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
		}, log),
		handlers.NewDashboardHandler(dashboardService, log),
		handlers.NewPageHandler(entryService, dashboardService, log),
		handlers.NewHealthHandler(health.NewHealthChecker(rt.pool, redisClient)),
		feed,
		middleware.NewSessionMiddleware(operatorService, cfg.Session.CookieName),
		log,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
