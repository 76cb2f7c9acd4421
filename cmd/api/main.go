package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/db"
	apihttp "vidtube/internal/http"
	"vidtube/internal/media"
	"vidtube/internal/ratelimit"
	"vidtube/internal/repository"
	"vidtube/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	uploader, err := media.NewS3Uploader(ctx, cfg)
	if err != nil {
		logger.Fatal("media uploader init", zap.Error(err))
	}

	tmpDir := cfg.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}

	loginWindow := time.Duration(cfg.LoginRateWindowMinutes) * time.Minute
	loginLimiter := ratelimit.NewMemoryLimiter(loginWindow, cfg.LoginRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory limiter", zap.Error(err))
		} else {
			loginLimiter = ratelimit.NewRedisLimiter(redisClient, loginWindow, cfg.LoginRateMax)
		}
		cancel()
	}

	userRepo := repository.NewPgUserRepository(pool)
	videoRepo := repository.NewPgVideoRepository(pool)
	subsRepo := repository.NewPgSubscriptionRepository(pool)

	accessTTL := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.RefreshTokenTTLHours) * time.Hour
	tokenServ := service.NewTokenService(userRepo, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, accessTTL, refreshTTL)
	userServ := service.NewUserService(logger, userRepo, uploader, loginLimiter)
	videoServ := service.NewVideoService(logger, videoRepo, uploader)
	subsServ := service.NewSubscriptionService(userRepo, subsRepo)

	cookies := apihttp.CookieOptions{
		Secure:        cfg.CookieSecure,
		AccessMaxAge:  int(accessTTL.Seconds()),
		RefreshMaxAge: int(refreshTTL.Seconds()),
	}

	userHandler := apihttp.NewUserHandler(logger, userServ, videoServ, tokenServ, cookies, tmpDir)
	videoHandler := apihttp.NewVideoHandler(logger, videoServ, tmpDir)
	subsHandler := apihttp.NewSubscriptionHandler(logger, subsServ)
	router := apihttp.NewRouter(logger, userHandler, videoHandler, subsHandler, tokenServ, userRepo, pool)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
