package service

import (
	"context"
	"errors"
	"net/http"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/logger"
)

// WalletLookup answers wallet existence and access questions
type WalletLookup interface {
	Exists(ctx context.Context, name string) (bool, error)
	HasAccess(ctx context.Context, name, username string) (bool, error)
}

// BotService manages the bot directory
type BotService struct {
	bots    repository.BotStore
	wallets WalletLookup
	clock   Clock
	log     *logger.Logger
}

func NewBotService(bots repository.BotStore, wallets WalletLookup, clock Clock, log *logger.Logger) *BotService {
	return &BotService{
		bots:    bots,
		wallets: wallets,
		clock:   clock,
		log:     log,
	}
}

// Create registers a bot owned by owner. The referenced wallet must exist
// and owner must have been granted access to it.
func (s *BotService) Create(ctx context.Context, owner string, req *model.CreateBotRequest) (*model.Bot, error) {
	if req.BotName == "" || req.WalletName == "" {
		return nil, util.ErrValidation("bot_name and wallet_name are required")
	}

	exists, err := s.wallets.Exists(ctx, req.WalletName)
	if err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to look up wallet", err)
	}
	if !exists {
		return nil, util.ErrWalletNotFound()
	}
	allowed, err := s.wallets.HasAccess(ctx, req.WalletName, owner)
	if err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to check wallet access", err)
	}
	if !allowed {
		return nil, util.ErrForbidden("No access to this wallet")
	}

	bot := req.ToBot(owner)
	bot.CreatedAt = s.clock.Now()

	if err := s.bots.Create(ctx, bot); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, util.ErrConflict("Bot name already exists")
		}
		return nil, util.ErrStorage("Failed to create bot", err)
	}

	s.log.WithFields(map[string]interface{}{
		"bot_id":   bot.BotID,
		"bot_name": bot.BotName,
		"owner":    owner,
	}).Info("Bot created")

	return bot, nil
}

func (s *BotService) Get(ctx context.Context, name string) (*model.Bot, error) {
	return resolveBot(ctx, s.bots, name)
}

func (s *BotService) List(ctx context.Context) ([]model.Bot, error) {
	bots, err := s.bots.List(ctx)
	if err != nil {
		return nil, util.ErrStorage("Failed to list bots", err)
	}
	return bots, nil
}

// resolveBot maps a bot name to its record, translating store errors
func resolveBot(ctx context.Context, bots repository.BotStore, name string) (*model.Bot, error) {
	bot, err := bots.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrBotNotFound()
		}
		return nil, util.ErrStorage("Failed to look up bot", err)
	}
	return bot, nil
}
