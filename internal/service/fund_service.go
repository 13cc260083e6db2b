package service

import (
	"context"
	"errors"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/logger"
)

// FundService appends and reads bot fund snapshots
type FundService struct {
	bots  repository.BotStore
	funds repository.FundStore
	clock Clock
	log   *logger.Logger
}

func NewFundService(bots repository.BotStore, funds repository.FundStore, clock Clock, log *logger.Logger) *FundService {
	return &FundService{
		bots:  bots,
		funds: funds,
		clock: clock,
		log:   log,
	}
}

// Create appends a snapshot of the bot's capital
func (s *FundService) Create(ctx context.Context, req *model.CreateFundRequest) (*model.FundSnapshot, error) {
	if req.Funds == nil {
		return nil, util.ErrValidation("funds must be greater than zero")
	}
	funds := req.Funds.Round(model.FundScale)
	if !funds.IsPositive() {
		return nil, util.ErrValidation("funds must be greater than zero")
	}

	bot, err := resolveBot(ctx, s.bots, req.BotName)
	if err != nil {
		return nil, err
	}

	snap, err := s.funds.Create(ctx, bot.BotID, funds, s.clock.Now())
	if err != nil {
		return nil, util.ErrStorage("Failed to record funds", err)
	}
	snap.BotName = bot.BotName

	s.log.Infof("Funds for bot %s set to %s (after position %d)", bot.BotName, snap.Funds.String(), snap.LastPositionID)
	return snap, nil
}

// Latest returns the bot's current funds
func (s *FundService) Latest(ctx context.Context, botName string) (*model.FundSnapshot, error) {
	bot, err := resolveBot(ctx, s.bots, botName)
	if err != nil {
		return nil, err
	}

	snap, err := s.funds.Latest(ctx, bot.BotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrNotFound("No funds recorded for bot")
		}
		return nil, util.ErrStorage("Failed to load funds", err)
	}
	return snap, nil
}

// LatestAll returns the current funds of every bot, ordered by bot name
func (s *FundService) LatestAll(ctx context.Context) ([]model.FundSnapshot, error) {
	snaps, err := s.funds.LatestAll(ctx)
	if err != nil {
		return nil, util.ErrStorage("Failed to load funds", err)
	}
	return snaps, nil
}
