package sqlite

import (
	"encoding/json"
	"time"

	"aegis/backend/internal/model"
)

type botRow struct {
	BotID                   int64     `gorm:"column:bot_id;primaryKey;autoIncrement"`
	BotName                 string    `gorm:"column:bot_name;uniqueIndex;not null"`
	Owner                   string    `gorm:"column:owner;not null"`
	WalletName              string    `gorm:"column:wallet_name;not null"`
	Description             string    `gorm:"column:description;not null;default:''"`
	ExchangeName            string    `gorm:"column:exchange_name;not null"`
	Pairs                   string    `gorm:"column:pairs;type:text;not null"`
	Strategy                string    `gorm:"column:strategy;not null"`
	Timeframe               string    `gorm:"column:timeframe;not null"`
	ReinvestGains           bool      `gorm:"column:reinvest_gains;not null"`
	PositionPercentInvest   float64   `gorm:"column:position_percent_invest;not null"`
	InvestCapital           float64   `gorm:"column:invest_capital;not null"`
	AdjustWithProfitsIfLoss bool      `gorm:"column:adjust_with_profits_if_loss;not null"`
	Simulation              bool      `gorm:"column:simulation;not null"`
	Active                  bool      `gorm:"column:active;not null"`
	CreatedAt               time.Time `gorm:"column:created_at;not null"`
}

func (botRow) TableName() string { return "bots" }

func (r botRow) toModel() (model.Bot, error) {
	pairs := []string{}
	if r.Pairs != "" {
		if err := json.Unmarshal([]byte(r.Pairs), &pairs); err != nil {
			return model.Bot{}, err
		}
	}
	return model.Bot{
		BotID:                   r.BotID,
		BotName:                 r.BotName,
		Owner:                   r.Owner,
		WalletName:              r.WalletName,
		Description:             r.Description,
		ExchangeName:            r.ExchangeName,
		Pairs:                   pairs,
		Strategy:                r.Strategy,
		Timeframe:               r.Timeframe,
		ReinvestGains:           r.ReinvestGains,
		PositionPercentInvest:   r.PositionPercentInvest,
		InvestCapital:           r.InvestCapital,
		AdjustWithProfitsIfLoss: r.AdjustWithProfitsIfLoss,
		Simulation:              r.Simulation,
		Active:                  r.Active,
		CreatedAt:               r.CreatedAt.UTC(),
	}, nil
}

type positionRow struct {
	PositionID       int64      `gorm:"column:position_id;primaryKey;autoIncrement"`
	BotID            int64      `gorm:"column:bot_id;not null;index:idx_positions_bot_sell_date,priority:1"`
	BuyOrderID       string     `gorm:"column:buy_order_id;not null"`
	BuyPrice         float64    `gorm:"column:buy_price;not null"`
	BuyQuantity      float64    `gorm:"column:buy_quantity;not null"`
	BuyFees          float64    `gorm:"column:buy_fees;not null"`
	BuyValue         float64    `gorm:"column:buy_value;not null"`
	BuyDate          time.Time  `gorm:"column:buy_date;not null"`
	BuySignals       *string    `gorm:"column:buy_signals"`
	Exchange         string     `gorm:"column:exchange;not null"`
	Pair             string     `gorm:"column:pair;not null"`
	FundSlot         int        `gorm:"column:fund_slot;not null;default:0"`
	SellOrderID      *string    `gorm:"column:sell_order_id"`
	SellPrice        *float64   `gorm:"column:sell_price"`
	SellQuantity     *float64   `gorm:"column:sell_quantity"`
	SellFees         *float64   `gorm:"column:sell_fees"`
	SellValue        *float64   `gorm:"column:sell_value"`
	SellDate         *time.Time `gorm:"column:sell_date;index:idx_positions_bot_sell_date,priority:2"`
	SellSignals      *string    `gorm:"column:sell_signals"`
	Ratio            *float64   `gorm:"column:ratio"`
	PositionDuration *int64     `gorm:"column:position_duration"`
}

func (positionRow) TableName() string { return "positions" }

type positionLogRow struct {
	PositionID int64 `gorm:"column:position_id;primaryKey;autoIncrement:false"`
	BuyLog     bool  `gorm:"column:buy_log;not null;default:false"`
	SellLog    bool  `gorm:"column:sell_log;not null;default:false"`
}

func (positionLogRow) TableName() string { return "position_logs" }

// positionView is the joined read shape of a position
type positionView struct {
	positionRow
	BotName string `gorm:"column:bot_name"`
	BuyLog  bool   `gorm:"column:buy_log"`
	SellLog bool   `gorm:"column:sell_log"`
}

func (v positionView) toModel() model.Position {
	p := model.Position{
		PositionID:       v.PositionID,
		BotID:            v.BotID,
		BotName:          v.BotName,
		BuyOrderID:       v.BuyOrderID,
		BuyPrice:         v.BuyPrice,
		BuyQuantity:      v.BuyQuantity,
		BuyFees:          v.BuyFees,
		BuyValue:         v.BuyValue,
		BuyDate:          v.BuyDate.UTC(),
		BuySignals:       v.BuySignals,
		Exchange:         v.Exchange,
		Pair:             v.Pair,
		FundSlot:         v.FundSlot,
		SellOrderID:      v.SellOrderID,
		SellPrice:        v.SellPrice,
		SellQuantity:     v.SellQuantity,
		SellFees:         v.SellFees,
		SellValue:        v.SellValue,
		SellSignals:      v.SellSignals,
		Ratio:            v.Ratio,
		PositionDuration: v.PositionDuration,
		BuyLog:           v.BuyLog,
		SellLog:          v.SellLog,
	}
	if v.SellDate != nil {
		sold := v.SellDate.UTC()
		p.SellDate = &sold
	}
	return p
}

// fundRow keeps funds as text so decimal precision is not lost to REAL affinity
type fundRow struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BotID          int64     `gorm:"column:bot_id;not null;index"`
	LastPositionID int64     `gorm:"column:last_position_id;not null;default:0"`
	Funds          string    `gorm:"column:funds;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (fundRow) TableName() string { return "fund_snapshots" }

type fundView struct {
	fundRow
	BotName string `gorm:"column:bot_name"`
}
