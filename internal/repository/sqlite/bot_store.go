package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"gorm.io/gorm"
)

type BotStore struct {
	db *gorm.DB
}

func NewBotStore(db *gorm.DB) *BotStore {
	return &BotStore{db: db}
}

func (s *BotStore) Create(ctx context.Context, bot *model.Bot) error {
	pairs := bot.Pairs
	if pairs == nil {
		pairs = []string{}
	}
	pairsJSON, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("sqlite: encode pairs: %w", err)
	}

	row := botRow{
		BotName:                 bot.BotName,
		Owner:                   bot.Owner,
		WalletName:              bot.WalletName,
		Description:             bot.Description,
		ExchangeName:            bot.ExchangeName,
		Pairs:                   string(pairsJSON),
		Strategy:                bot.Strategy,
		Timeframe:               bot.Timeframe,
		ReinvestGains:           bot.ReinvestGains,
		PositionPercentInvest:   bot.PositionPercentInvest,
		InvestCapital:           bot.InvestCapital,
		AdjustWithProfitsIfLoss: bot.AdjustWithProfitsIfLoss,
		Simulation:              bot.Simulation,
		Active:                  bot.Active,
		CreatedAt:               bot.CreatedAt.UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&botRow{}).Where("bot_name = ?", bot.BotName).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return repository.ErrAlreadyExists
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("sqlite: create bot %s: %w", bot.BotName, err)
	}

	bot.BotID = row.BotID
	bot.CreatedAt = row.CreatedAt
	bot.Pairs = pairs
	return nil
}

func (s *BotStore) GetByName(ctx context.Context, name string) (*model.Bot, error) {
	var row botRow
	err := s.db.WithContext(ctx).Where("bot_name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get bot %s: %w", name, err)
	}
	bot, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("sqlite: decode bot %s: %w", name, err)
	}
	return &bot, nil
}

func (s *BotStore) List(ctx context.Context) ([]model.Bot, error) {
	var rows []botRow
	if err := s.db.WithContext(ctx).Order("bot_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlite: list bots: %w", err)
	}

	bots := make([]model.Bot, 0, len(rows))
	for _, row := range rows {
		bot, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode bot %s: %w", row.BotName, err)
		}
		bots = append(bots, bot)
	}
	return bots, nil
}
