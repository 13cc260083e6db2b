package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"aegis/backend/internal/config"
	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/service"
	"aegis/backend/internal/storage"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	demoWallet  = "demo-wallet"
	demoAddress = "0x52908400098527886e0f7030069857d2e4169ee7"
	demoBot     = "demo-bot"
)

// seedClock lets the demo backdate trades
type seedClock struct {
	now time.Time
}

func (c *seedClock) Now() time.Time { return c.now }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	demo := flag.Bool("demo", false, "also create a demo wallet, bot, trades and fund snapshots")
	trades := flag.Int("trades", 40, "number of closed demo trades")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	appLog := logger.New(cfg.Log.Level, cfg.Log.Format)

	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(redisClient)

	username := getEnv("SEED_ADMIN_USERNAME", "admin")
	password := getEnv("SEED_ADMIN_PASSWORD", "changeme123")
	if err := seedAdmin(ctx, userRepo, username, password); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	if !*demo {
		return
	}

	store, err := storage.Open(ctx, cfg.Database, appLog)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer store.Close()

	sealer, err := crypto.NewSealer(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("Failed to initialize sealer: %v", err)
	}

	now := time.Now().UTC()
	clock := &seedClock{now: now}
	walletRepo := repository.NewWalletRepository(redisClient)

	walletService := service.NewWalletService(walletRepo, userRepo, sealer, clock, appLog)
	botService := service.NewBotService(store.Bots, walletRepo, clock, appLog)
	positionService := service.NewPositionService(store.Bots, store.Positions, nil, clock, appLog)
	fundService := service.NewFundService(store.Bots, store.Funds, clock, appLog)

	_, err = walletService.Create(ctx, username, &model.CreateWalletRequest{
		Name:    demoWallet,
		Address: demoAddress,
		Keys:    map[string]string{"private_key": "demo-only"},
	})
	if err != nil && util.StatusOf(err) != http.StatusConflict {
		log.Fatalf("Failed to create demo wallet: %v", err)
	}

	_, err = botService.Create(ctx, username, &model.CreateBotRequest{
		BotName:    demoBot,
		WalletName: demoWallet,
		Pairs:      []string{"BTC/USDT", "ETH/USDT"},
	})
	if err != nil {
		if util.StatusOf(err) == http.StatusConflict {
			fmt.Printf("Bot %s already exists, skipping demo trades\n", demoBot)
			return
		}
		log.Fatalf("Failed to create demo bot: %v", err)
	}

	if err := seedTrades(ctx, clock, positionService, fundService, now, *trades); err != nil {
		log.Fatalf("Failed to seed trades: %v", err)
	}

	fmt.Printf("✓ Demo data created: wallet %s, bot %s, %d closed trades\n", demoWallet, demoBot, *trades)
}

func seedAdmin(ctx context.Context, userRepo *repository.UserRepository, username, password string) error {
	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	existing, err := userRepo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		fmt.Printf("User %s already exists. Updating password and role to admin...\n", username)
		existing.PasswordHash = passwordHash
		existing.Role = model.RoleAdmin
		existing.Status = model.StatusActive
		existing.UpdatedAt = time.Now().UTC()
		if err := userRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := userRepo.DeleteUserSessions(ctx, existing.ID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		fmt.Println("✓ User updated successfully")
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("look up user: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("✓ Admin user created successfully:\n")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Role:     %s\n", model.RoleAdmin)
	return nil
}

// seedTrades spreads closed trades over the last 60 days, leaves one
// position open and records the running balance after each week
func seedTrades(ctx context.Context, clock *seedClock, positions *service.PositionService, funds *service.FundService, now time.Time, n int) error {
	rng := rand.New(rand.NewPCG(42, 7))
	pairs := []string{"BTC/USDT", "ETH/USDT"}
	balance := model.DefaultInvestCapital

	start := now.Add(-60 * 24 * time.Hour)
	step := 60 * 24 * time.Hour / time.Duration(n+1)
	lastSnapshot := start

	for i := 0; i < n; i++ {
		buyAt := start.Add(time.Duration(i) * step)
		hold := time.Duration(1+rng.IntN(36)) * time.Hour

		price := 100 + rng.Float64()*50
		qty := 1 + float64(rng.IntN(4))
		value := price * qty
		fees := value * 0.001

		clock.now = buyAt
		opened, err := positions.Open(ctx, &model.OpenPositionRequest{
			BotName:     demoBot,
			BuyOrderID:  fmt.Sprintf("demo-buy-%d", i+1),
			BuyPrice:    &price,
			BuyQuantity: &qty,
			BuyFees:     &fees,
			BuyValue:    &value,
			Exchange:    model.DefaultExchangeName,
			Pair:        pairs[i%len(pairs)],
		})
		if err != nil {
			return err
		}

		exit := price * (0.95 + rng.Float64()*0.12)
		sellValue := exit * qty
		sellFees := sellValue * 0.001
		clock.now = buyAt.Add(hold)
		if _, err := positions.Close(ctx, opened.PositionID, &model.ClosePositionRequest{
			SellOrderID:  fmt.Sprintf("demo-sell-%d", i+1),
			SellPrice:    &exit,
			SellQuantity: &qty,
			SellFees:     &sellFees,
			SellValue:    &sellValue,
		}); err != nil {
			return err
		}
		balance += sellValue - value - fees - sellFees

		if clock.now.Sub(lastSnapshot) >= 7*24*time.Hour {
			if _, err := funds.Create(ctx, &model.CreateFundRequest{
				BotName: demoBot,
				Funds:   ptr(decimal.NewFromFloat(balance)),
			}); err != nil {
				return err
			}
			lastSnapshot = clock.now
		}
	}

	price, qty, fees := 120.0, 1.0, 0.12
	value := price * qty
	clock.now = now.Add(-2 * time.Hour)
	_, err := positions.Open(ctx, &model.OpenPositionRequest{
		BotName:     demoBot,
		BuyOrderID:  "demo-buy-open",
		BuyPrice:    &price,
		BuyQuantity: &qty,
		BuyFees:     &fees,
		BuyValue:    &value,
		Exchange:    model.DefaultExchangeName,
		Pair:        pairs[0],
	})
	return err
}

func ptr[T any](v T) *T { return &v }
