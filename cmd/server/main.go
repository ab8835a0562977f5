package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"user_admin/internal/app/di"
	"user_admin/internal/app/router"
	"user_admin/internal/config"
	"user_admin/internal/platform/db"
	"user_admin/internal/platform/logger"
	"user_admin/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger := logger.Setup(os.Stdout, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := db.Open(db.ConfigFromApp(cfg), cfg.RunMigrations)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Redis
	var rdb *redisv9.Client
	if addr := cfg.RedisAddr(); addr == "" {
		slog.Info("REDIS_HOST is not set. Running without cache.")
	} else if tmp, err := redis.NewRedisClient(ctx, addr, cfg.RedisPassword); err != nil {
		slog.Warn("Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	container, err := di.NewContainer(di.Options{
		DB:         gdb,
		Redis:      rdb,
		CacheTTL:   cfg.CacheTTL,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("failed to build dependencies: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	engine := router.NewRouter(container, di.NewSessionCodec(cfg), appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(appLogger.Handler(), slog.LevelError),
	}

	go func() {
		slog.Info("starting HTTP server", "address", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server graceful shutdown failed", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("server stopped")
}
