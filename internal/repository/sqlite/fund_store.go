package sqlite

import (
	"context"
	"fmt"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)


type FundStore struct {
	db *gorm.DB
}

func NewFundStore(db *gorm.DB) *FundStore {
	return &FundStore{db: db}
}

func (v fundView) toModel() (model.FundSnapshot, error) {
	funds, err := decimal.NewFromString(v.Funds)
	if err != nil {
		return model.FundSnapshot{}, err
	}
	return model.FundSnapshot{
		ID:             v.ID,
		BotID:          v.BotID,
		BotName:        v.BotName,
		LastPositionID: v.LastPositionID,
		Funds:          funds,
		CreatedAt:      v.CreatedAt.UTC(),
	}, nil
}

func (s *FundStore) view(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("fund_snapshots AS f").
		Select("f.*, b.bot_name").
		Joins("JOIN bots b ON b.bot_id = f.bot_id")
}

func (s *FundStore) Create(ctx context.Context, botID int64, funds decimal.Decimal, at time.Time) (*model.FundSnapshot, error) {
	row := fundRow{
		BotID:     botID,
		Funds:     funds.Round(model.FundScale).String(),
		CreatedAt: at.UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&positionRow{}).
			Where("bot_id = ?", botID).
			Select("COALESCE(MAX(position_id), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		row.LastPositionID = last
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: create fund snapshot: %w", err)
	}

	return &model.FundSnapshot{
		ID:             row.ID,
		BotID:          row.BotID,
		LastPositionID: row.LastPositionID,
		Funds:          funds.Round(model.FundScale),
		CreatedAt:      row.CreatedAt,
	}, nil
}

func (s *FundStore) Latest(ctx context.Context, botID int64) (*model.FundSnapshot, error) {
	var views []fundView
	if err := s.view(ctx).Where("f.bot_id = ?", botID).Order("f.id DESC").Limit(1).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("sqlite: latest funds for bot %d: %w", botID, err)
	}
	if len(views) == 0 {
		return nil, repository.ErrNotFound
	}
	snap, err := views[0].toModel()
	if err != nil {
		return nil, fmt.Errorf("sqlite: decode funds: %w", err)
	}
	return &snap, nil
}

func (s *FundStore) LatestAll(ctx context.Context) ([]model.FundSnapshot, error) {
	latest := s.db.Model(&fundRow{}).Select("MAX(id)").Group("bot_id")

	var views []fundView
	if err := s.view(ctx).Where("f.id IN (?)", latest).Order("b.bot_name").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("sqlite: latest funds: %w", err)
	}

	snaps := make([]model.FundSnapshot, 0, len(views))
	for _, v := range views {
		snap, err := v.toModel()
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode funds: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
