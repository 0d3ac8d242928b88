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

	"github.com/savanna-table/savanna-backend/config"
	"github.com/savanna-table/savanna-backend/internal/app/controller"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/savanna-table/savanna-backend/internal/middleware"
	"github.com/savanna-table/savanna-backend/internal/router"
	"github.com/savanna-table/savanna-backend/internal/scheduler"
	"github.com/savanna-table/savanna-backend/internal/storage"
	ws "github.com/savanna-table/savanna-backend/internal/websocket"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"github.com/savanna-table/savanna-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logFormat := cfg.Log.Format
	if logFormat == "" {
		logFormat = "json"
		if cfg.Server.Environment == "development" {
			logFormat = "console"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		Service:     "savanna-backend",
		EnableColor: true,
	})

	logger.Info("Starting Savanna Table Backend Server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"pricing_mode": cfg.Order.PricingMode,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Token revocation is optional; without Redis logout is client-side only
	var (
		revocationChecker middleware.TokenRevocationChecker
		tokenRevoker      service.TokenRevoker
	)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
			blacklist := redis.NewTokenBlacklist(redis.GetClient())
			revocationChecker = blacklist
			tokenRevoker = blacklist
		}
	}

	// Image storage
	var images storage.ImageStorage
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		images = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
		if err != nil {
			logger.Fatal("Failed to prepare upload directory", err)
		}
		images = local
	}

	// Live order events
	hub := ws.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	adminRepo := repository.NewAdminRepository(db.GetDB())
	addressRepo := repository.NewAddressRepository(db.GetDB())
	menuRepo := repository.NewMenuRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, adminRepo, tokenRevoker, cfg.JWT.Secret, cfg.JWT.Expiry)
	addressService := service.NewAddressService(addressRepo, db.GetDB())
	menuService := service.NewMenuService(menuRepo, images, cfg.Storage.MaxImageBytes)
	orderService := service.NewOrderService(orderRepo, db.GetDB(), cfg.Order, hub)
	adminService := service.NewAdminService(userRepo, orderRepo, adminRepo)

	if _, created, err := adminService.EnsureSuperAdmin(cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Warn("Failed to ensure super admin", map[string]interface{}{
			"error": err.Error(),
		})
	} else if created {
		logger.Info("Default super admin created", map[string]interface{}{
			"email": cfg.Admin.Email,
		})
	}

	// Popular items job
	var popular *scheduler.PopularityScheduler
	if cfg.Scheduler.Enabled {
		popular = scheduler.NewPopularityScheduler(menuService, cfg.Scheduler.PopularSpec, cfg.Scheduler.PopularTopN)
		if err := popular.Start(); err != nil {
			logger.Fatal("Failed to start popular items scheduler", err)
		}
		if cfg.Scheduler.RunOnStartup {
			go popular.RunNow()
		}
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revocationChecker)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loginLimiter.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	// Setup router
	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewMenuController(menuService),
		controller.NewOrderController(orderService),
		controller.NewProfileController(authService, addressService),
		controller.NewAdminController(adminService),
		controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		authMiddleware,
		loginLimiter,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	close(stopCleanup)
	if popular != nil {
		popular.Stop()
	}
	hub.Stop()

	logger.Info("Server stopped successfully")
}
