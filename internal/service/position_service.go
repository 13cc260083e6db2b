package service

import (
	"context"
	"errors"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/logger"
)

// PositionPublisher broadcasts committed position changes
type PositionPublisher interface {
	PublishPosition(ctx context.Context, event model.PositionEvent) error
}

// PositionService records the buy and sell sides of bot positions
type PositionService struct {
	bots      repository.BotStore
	positions repository.PositionStore
	publisher PositionPublisher
	clock     Clock
	log       *logger.Logger
}

// NewPositionService creates a position service. publisher may be nil.
func NewPositionService(
	bots repository.BotStore,
	positions repository.PositionStore,
	publisher PositionPublisher,
	clock Clock,
	log *logger.Logger,
) *PositionService {
	return &PositionService{
		bots:      bots,
		positions: positions,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

// Open records a buy for the named bot and returns the new position id.
// The position and its log row are written in one transaction.
func (s *PositionService) Open(ctx context.Context, req *model.OpenPositionRequest) (*model.OpenPositionResponse, error) {
	if req.BotName == "" || req.BuyOrderID == "" || req.Exchange == "" || req.Pair == "" {
		return nil, util.ErrValidation("bot_name, buy_order_id, exchange and pair are required")
	}
	if req.BuyPrice == nil || req.BuyQuantity == nil || req.BuyFees == nil || req.BuyValue == nil {
		return nil, util.ErrValidation("buy_price, buy_quantity, buy_fees and buy_value are required")
	}
	if !util.AllFinite(*req.BuyPrice, *req.BuyQuantity, *req.BuyFees, *req.BuyValue) {
		return nil, util.ErrValidation("Buy amounts must be finite numbers")
	}

	bot, err := resolveBot(ctx, s.bots, req.BotName)
	if err != nil {
		return nil, err
	}

	pos := &model.Position{
		BotID:       bot.BotID,
		BotName:     bot.BotName,
		BuyOrderID:  req.BuyOrderID,
		BuyPrice:    *req.BuyPrice,
		BuyQuantity: *req.BuyQuantity,
		BuyFees:     *req.BuyFees,
		BuyValue:    *req.BuyValue,
		BuyDate:     s.clock.Now(),
		BuySignals:  req.BuySignals,
		Exchange:    req.Exchange,
		Pair:        req.Pair,
	}
	if req.FundSlot != nil {
		pos.FundSlot = *req.FundSlot
	}

	id, err := s.positions.Open(ctx, pos)
	if err != nil {
		return nil, util.ErrStorage("Failed to open position", err)
	}

	s.log.WithFields(map[string]interface{}{
		"position_id": id,
		"bot_name":    bot.BotName,
		"pair":        pos.Pair,
	}).Info("Position opened")

	s.publish(ctx, model.PositionEvent{
		Type:       model.EventPositionOpened,
		PositionID: id,
		BotID:      bot.BotID,
		BotName:    bot.BotName,
		Pair:       pos.Pair,
		At:         pos.BuyDate,
	})

	return &model.OpenPositionResponse{PositionID: id}, nil
}

// Close records the sell side of a position and returns the updated record.
// Closing an already closed position overwrites its sell side.
func (s *PositionService) Close(ctx context.Context, positionID int64, req *model.ClosePositionRequest) (*model.Position, error) {
	if req.SellOrderID == "" {
		return nil, util.ErrValidation("sell_order_id is required")
	}
	if req.SellPrice == nil || req.SellQuantity == nil || req.SellFees == nil || req.SellValue == nil {
		return nil, util.ErrValidation("sell_price, sell_quantity, sell_fees and sell_value are required")
	}
	if !util.AllFinite(*req.SellPrice, *req.SellQuantity, *req.SellFees, *req.SellValue) {
		return nil, util.ErrValidation("Sell amounts must be finite numbers")
	}

	existing, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrPositionNotFound()
		}
		return nil, util.ErrStorage("Failed to load position", err)
	}
	if !existing.IsOpen() {
		s.log.Warnf("Position %d already closed at %s, overwriting sell side",
			positionID, existing.SellDate.Format("2006-01-02T15:04:05Z07:00"))
	}

	sell := model.SellOrder{
		OrderID:  req.SellOrderID,
		Price:    *req.SellPrice,
		Quantity: *req.SellQuantity,
		Fees:     *req.SellFees,
		Value:    *req.SellValue,
		Signals:  req.SellSignals,
	}
	closedAt := s.clock.Now()

	if err := s.positions.Close(ctx, positionID, sell, closedAt, req.SellLog); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrPositionNotFound()
		}
		return nil, util.ErrStorage("Failed to close position", err)
	}

	closed, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		return nil, util.ErrStorage("Failed to load closed position", err)
	}

	s.log.WithFields(map[string]interface{}{
		"position_id": positionID,
		"bot_name":    closed.BotName,
		"sell_value":  sell.Value,
	}).Info("Position closed")

	s.publish(ctx, model.PositionEvent{
		Type:       model.EventPositionClosed,
		PositionID: positionID,
		BotID:      closed.BotID,
		BotName:    closed.BotName,
		Pair:       closed.Pair,
		Ratio:      closed.Ratio,
		At:         closedAt,
	})

	return closed, nil
}

// SetLogFlags marks the buy or sell side of a position as reported
func (s *PositionService) SetLogFlags(ctx context.Context, positionID int64, req *model.PositionLogRequest) error {
	if req.BuyLog == nil && req.SellLog == nil {
		return util.ErrValidation("buy_log or sell_log is required")
	}

	if err := s.positions.SetLogFlags(ctx, positionID, req.BuyLog, req.SellLog); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrPositionNotFound()
		}
		return util.ErrStorage("Failed to update position log", err)
	}
	return nil
}

// List returns positions newest first, for one bot or for all bots when
// botName is empty. An unknown bot has no positions.
func (s *PositionService) List(ctx context.Context, botName string) ([]model.Position, error) {
	var botID int64
	if botName != "" {
		bot, err := s.bots.GetByName(ctx, botName)
		if errors.Is(err, repository.ErrNotFound) {
			return []model.Position{}, nil
		}
		if err != nil {
			return nil, util.ErrStorage("Failed to look up bot", err)
		}
		botID = bot.BotID
	}

	positions, err := s.positions.List(ctx, botID)
	if err != nil {
		return nil, util.ErrStorage("Failed to list positions", err)
	}
	return positions, nil
}

func (s *PositionService) publish(ctx context.Context, event model.PositionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPosition(ctx, event); err != nil {
		s.log.Error("Failed to publish position event", err)
	}
}
