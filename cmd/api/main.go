package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"ascend-api/internal/cache"
	"ascend-api/internal/config"
	"ascend-api/internal/db"
	apihttp "ascend-api/internal/http"
	"ascend-api/internal/ratelimit"
	"ascend-api/internal/repository"
	"ascend-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	tokenCache := cache.NewRedisTokenCache(logger, cfg.RedisURL)
	limiter := ratelimit.NewRedisSlidingWindow(logger, cfg.RedisURL, ratelimit.DefaultPolicy())

	authenticator := service.NewAuthenticator(logger, cfg.AuthSecret, userRepo, tokenCache)
	userSvc := service.NewUserService(logger, userRepo)

	authHandler := apihttp.NewAuthHandler(logger)
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	healthHandler := apihttp.NewHealthHandler(tokenCache)
	router := apihttp.NewRouter(logger, limiter, authenticator, authHandler, userHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("environment", cfg.Environment))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
