package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"gorm.io/gorm"
)

type PositionStore struct {
	db *gorm.DB
}

func NewPositionStore(db *gorm.DB) *PositionStore {
	return &PositionStore{db: db}
}

const positionViewSelect = "p.*, b.bot_name, COALESCE(l.buy_log, 0) AS buy_log, COALESCE(l.sell_log, 0) AS sell_log"

func (s *PositionStore) view(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("positions AS p").
		Select(positionViewSelect).
		Joins("JOIN bots b ON b.bot_id = p.bot_id").
		Joins("LEFT JOIN position_logs l ON l.position_id = p.position_id")
}

func toPositions(views []positionView) []model.Position {
	positions := make([]model.Position, 0, len(views))
	for _, v := range views {
		positions = append(positions, v.toModel())
	}
	return positions
}

func (s *PositionStore) Open(ctx context.Context, pos *model.Position) (int64, error) {
	row := positionRow{
		BotID:       pos.BotID,
		BuyOrderID:  pos.BuyOrderID,
		BuyPrice:    pos.BuyPrice,
		BuyQuantity: pos.BuyQuantity,
		BuyFees:     pos.BuyFees,
		BuyValue:    pos.BuyValue,
		BuyDate:     pos.BuyDate.UTC(),
		BuySignals:  pos.BuySignals,
		Exchange:    pos.Exchange,
		Pair:        pos.Pair,
		FundSlot:    pos.FundSlot,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&positionLogRow{PositionID: row.PositionID}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: open position: %w", err)
	}
	return row.PositionID, nil
}

// Close reads the buy side and writes the sell side inside one transaction.
// The single connection pool makes the transaction exclusive.
func (s *PositionStore) Close(ctx context.Context, positionID int64, sell model.SellOrder, closedAt time.Time, sellLog *bool) error {
	closedAt = closedAt.UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row positionRow
		if err := tx.First(&row, "position_id = ?", positionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}

		var ratio *float64
		if row.BuyValue != 0 {
			r := (sell.Value - row.BuyValue) / row.BuyValue
			ratio = &r
		}
		duration := int64(closedAt.Sub(row.BuyDate) / time.Second)

		updates := map[string]interface{}{
			"sell_order_id":     sell.OrderID,
			"sell_price":        sell.Price,
			"sell_quantity":     sell.Quantity,
			"sell_fees":         sell.Fees,
			"sell_value":        sell.Value,
			"sell_signals":      sell.Signals,
			"sell_date":         closedAt,
			"ratio":             ratio,
			"position_duration": duration,
		}
		if err := tx.Model(&positionRow{}).Where("position_id = ?", positionID).Updates(updates).Error; err != nil {
			return err
		}

		if sellLog != nil {
			if err := tx.Model(&positionLogRow{}).Where("position_id = ?", positionID).
				Update("sell_log", *sellLog).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlite: close position %d: %w", positionID, err)
	}
	return nil
}

func (s *PositionStore) SetLogFlags(ctx context.Context, positionID int64, buyLog, sellLog *bool) error {
	updates := map[string]interface{}{}
	if buyLog != nil {
		updates["buy_log"] = *buyLog
	}
	if sellLog != nil {
		updates["sell_log"] = *sellLog
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&positionLogRow{}).Where("position_id = ?", positionID).Count(&exists).Error; err != nil {
		return fmt.Errorf("sqlite: find position log %d: %w", positionID, err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&positionLogRow{}).Where("position_id = ?", positionID).Updates(updates).Error; err != nil {
		return fmt.Errorf("sqlite: update position log %d: %w", positionID, err)
	}
	return nil
}

func (s *PositionStore) GetByID(ctx context.Context, positionID int64) (*model.Position, error) {
	var views []positionView
	if err := s.view(ctx).Where("p.position_id = ?", positionID).Limit(1).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("sqlite: get position %d: %w", positionID, err)
	}
	if len(views) == 0 {
		return nil, repository.ErrNotFound
	}
	p := views[0].toModel()
	return &p, nil
}

func (s *PositionStore) List(ctx context.Context, botID int64) ([]model.Position, error) {
	q := s.view(ctx)
	if botID != 0 {
		q = q.Where("p.bot_id = ?", botID)
	}

	var views []positionView
	if err := q.Order("p.buy_date DESC, p.position_id DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("sqlite: list positions: %w", err)
	}
	return toPositions(views), nil
}

func (s *PositionStore) ListClosed(ctx context.Context, botID int64) ([]model.Position, error) {
	var views []positionView
	err := s.view(ctx).
		Where("p.bot_id = ? AND p.sell_date IS NOT NULL", botID).
		Order("p.sell_date ASC, p.position_id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list closed positions: %w", err)
	}
	return toPositions(views), nil
}

func (s *PositionStore) CountByBot(ctx context.Context, botID int64) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&positionRow{}).Where("bot_id = ?", botID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("sqlite: count positions: %w", err)
	}
	return total, nil
}

func (s *PositionStore) PageByBot(ctx context.Context, botID int64, limit, offset int) ([]model.Position, error) {
	var views []positionView
	err := s.view(ctx).
		Where("p.bot_id = ?", botID).
		Order("COALESCE(p.sell_date, p.buy_date) DESC, p.position_id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: page positions: %w", err)
	}
	return toPositions(views), nil
}
