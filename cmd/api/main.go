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

	"aegis/backend/internal/config"
	"aegis/backend/internal/handler"
	"aegis/backend/internal/middleware"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/service"
	"aegis/backend/internal/storage"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/jwt"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting Aegis backend...")
	log.Infof("Environment: %s", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Connecting to Redis...")
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	log.Infof("Opening %s ledger...", cfg.Database.Driver)
	store, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open ledger", err)
	}
	defer store.Close()

	sealer, err := crypto.NewSealer(cfg.Encryption.Key)
	if err != nil {
		log.Fatal("Failed to initialize wallet key sealer", err)
	}

	jwtManager := jwt.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire(),
		cfg.JWT.RefreshTokenExpire(),
	)
	clock := service.SystemClock{}

	// Repositories
	userRepo := repository.NewUserRepository(redisClient)
	walletRepo := repository.NewWalletRepository(redisClient)
	events := repository.NewEventPublisher(redisClient)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, clock, log)
	walletService := service.NewWalletService(walletRepo, userRepo, sealer, clock, log)
	botService := service.NewBotService(store.Bots, walletRepo, clock, log)
	positionService := service.NewPositionService(store.Bots, store.Positions, events, clock, log)
	dashboardService := service.NewDashboardService(store.Bots, store.Positions, clock)
	fundService := service.NewFundService(store.Bots, store.Funds, clock, log)
	feed := service.NewPositionFeed(redisClient, log)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	limiter := func(limit int, window time.Duration, action string) gin.HandlerFunc {
		return middleware.NewRateLimiter(redisClient, limit, window, action, log).Limit()
	}

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Wallet:    handler.NewWalletHandler(walletService),
		Bot:       handler.NewBotHandler(botService),
		Fund:      handler.NewFundHandler(fundService),
		Position:  handler.NewPositionHandler(positionService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Health:    handler.NewHealthHandler(store.Health, redisClient),
		Feed:      handler.NewFeedHandler(feed, cfg.CORS.AllowedOrigins, log),
	}, handler.Guards{
		Auth:         middleware.AuthMiddleware(authService),
		API:          limiter(cfg.RateLimit.RequestsPerMinute, time.Minute, "api"),
		Login:        limiter(cfg.RateLimit.LoginPerMinute, time.Minute, "login"),
		Register:     limiter(cfg.RateLimit.RegisterPerHour, time.Hour, "register"),
		WalletCreate: limiter(cfg.RateLimit.WalletCreatePerHour, time.Hour, "wallet_create"),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		feed.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := feed.Listen(gctx); err != nil {
			return fmt.Errorf("position feed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
