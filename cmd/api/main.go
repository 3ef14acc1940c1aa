package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talnw1123/TrendReversal-Backend/internal/app/migrate"
	httpx "github.com/talnw1123/TrendReversal-Backend/internal/http"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository/postgres"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/asset"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/auth"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/notification"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/prediction"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/user"
	"github.com/talnw1123/TrendReversal-Backend/internal/ws"
	"github.com/talnw1123/TrendReversal-Backend/pkg/config"
	"github.com/talnw1123/TrendReversal-Backend/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	var cache prediction.Cache
	if addr := strings.TrimSpace(cfg.PredictionCacheAddr); addr != "" {
		cache, err = prediction.NewRedisCache(addr, cfg.PredictionCachePassword, cfg.PredictionCacheDB, cfg.PredictionCacheTTL, log)
		if err != nil {
			log.Warn("prediction cache unavailable, predictions fall through to ml service", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	authSvc := auth.New(repo, log, cfg)
	userSvc := user.New(repo, log)
	assetSvc := asset.New(repo, log)
	predictionSvc := prediction.New(prediction.NewMLClient(cfg), cache, log)
	notificationSvc := notification.New(repo, repo, hub, log)

	router := httpx.NewRouter(log, authSvc, userSvc, assetSvc, predictionSvc, notificationSvc, hub, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
