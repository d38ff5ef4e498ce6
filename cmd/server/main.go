package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/problemhub/problemhub/internal/config"
	"github.com/problemhub/problemhub/internal/database"
	"github.com/problemhub/problemhub/internal/handler"
	"github.com/problemhub/problemhub/internal/middleware"
	"github.com/problemhub/problemhub/internal/queue"
	"github.com/problemhub/problemhub/internal/repository"
	"github.com/problemhub/problemhub/internal/router"
	"github.com/problemhub/problemhub/internal/service"
	"github.com/problemhub/problemhub/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	problems := repository.NewProblemRepo(db)

	tokens := utils.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLDays)*24*time.Hour)
	identity := service.NewIdentityService(users, tokens, queue.NewOTPPublisher(), logger, cfg.BcryptCost)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(identity, profiles),
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	router.RegisterProfile(e, handler.NewProfileHandler(profiles, cfg.UploadDir), tokens)
	router.RegisterProblems(e, handler.NewProblemHandler(problems))

	// The consumer stands in for the SMS gateway; it reconnects on its own.
	go func() {
		if err := queue.StartOTPConsumer(); err != nil {
			logger.Error("otp consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	return logger
}
