package model

import (
	"time"
)

// Defaults applied to fields omitted from a bot creation request
const (
	DefaultExchangeName            = "Binance"
	DefaultStrategy                = "default"
	DefaultTimeframe               = "1h"
	DefaultPositionPercentInvest   = 50.00
	DefaultInvestCapital           = 1000.00
	DefaultReinvestGains           = true
	DefaultAdjustWithProfitsIfLoss = true
	DefaultSimulation              = true
)

// Bot is a trading bot configuration. Positions and fund snapshots are
// attributed to a bot by BotID.
type Bot struct {
	BotID       int64  `json:"bot_id"`
	BotName     string `json:"bot_name"`
	Owner       string `json:"owner"`
	WalletName  string `json:"wallet_name"`
	Description string `json:"description"`

	ExchangeName string   `json:"exchange_name"`
	Pairs        []string `json:"pairs"`
	Strategy     string   `json:"strategy"`
	Timeframe    string   `json:"timeframe"`

	// Sizing rules
	ReinvestGains           bool    `json:"reinvest_gains"`
	PositionPercentInvest   float64 `json:"position_percent_invest"`
	InvestCapital           float64 `json:"invest_capital"`
	AdjustWithProfitsIfLoss bool    `json:"adjust_with_profits_if_loss"`

	Simulation bool      `json:"simulation"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateBotRequest is the body of POST /bots. Pointer fields distinguish
// "omitted" from the zero value so defaults can be applied.
type CreateBotRequest struct {
	BotName                 string   `json:"bot_name" binding:"required,min=1,max=100"`
	WalletName              string   `json:"wallet_name" binding:"required"`
	Description             string   `json:"description" binding:"max=500"`
	ExchangeName            *string  `json:"exchange_name"`
	Pairs                   []string `json:"pairs"`
	Strategy                *string  `json:"strategy"`
	Timeframe               *string  `json:"timeframe"`
	ReinvestGains           *bool    `json:"reinvest_gains"`
	PositionPercentInvest   *float64 `json:"position_percent_invest" binding:"omitempty,gt=0,lte=100"`
	InvestCapital           *float64 `json:"invest_capital" binding:"omitempty,gte=0"`
	AdjustWithProfitsIfLoss *bool    `json:"adjust_with_profits_if_loss"`
	Simulation              *bool    `json:"simulation"`
}

// ToBot builds a Bot from the request, filling defaults for omitted fields
func (r *CreateBotRequest) ToBot(owner string) *Bot {
	bot := &Bot{
		BotName:                 r.BotName,
		Owner:                   owner,
		WalletName:              r.WalletName,
		Description:             r.Description,
		ExchangeName:            DefaultExchangeName,
		Pairs:                   []string{},
		Strategy:                DefaultStrategy,
		Timeframe:               DefaultTimeframe,
		ReinvestGains:           DefaultReinvestGains,
		PositionPercentInvest:   DefaultPositionPercentInvest,
		InvestCapital:           DefaultInvestCapital,
		AdjustWithProfitsIfLoss: DefaultAdjustWithProfitsIfLoss,
		Simulation:              DefaultSimulation,
	}

	if r.ExchangeName != nil {
		bot.ExchangeName = *r.ExchangeName
	}
	if r.Pairs != nil {
		bot.Pairs = r.Pairs
	}
	if r.Strategy != nil {
		bot.Strategy = *r.Strategy
	}
	if r.Timeframe != nil {
		bot.Timeframe = *r.Timeframe
	}
	if r.ReinvestGains != nil {
		bot.ReinvestGains = *r.ReinvestGains
	}
	if r.PositionPercentInvest != nil {
		bot.PositionPercentInvest = *r.PositionPercentInvest
	}
	if r.InvestCapital != nil {
		bot.InvestCapital = *r.InvestCapital
	}
	if r.AdjustWithProfitsIfLoss != nil {
		bot.AdjustWithProfitsIfLoss = *r.AdjustWithProfitsIfLoss
	}
	if r.Simulation != nil {
		bot.Simulation = *r.Simulation
	}

	return bot
}
