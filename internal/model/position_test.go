package model

import (
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestPositionProfit(t *testing.T) {
	sold := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Position{BuyValue: 200, BuyFees: 1, SellValue: f(220), SellFees: f(1), SellDate: &sold}

	profit, ok := p.Profit()
	if !ok {
		t.Fatal("closed position reported no profit")
	}
	if profit != 18 {
		t.Errorf("profit = %v, want 18", profit)
	}
}

func TestOpenPositionHasNoProfit(t *testing.T) {
	p := Position{BuyValue: 200, BuyFees: 1}
	if !p.IsOpen() {
		t.Fatal("position without sell date should be open")
	}
	if _, ok := p.Profit(); ok {
		t.Error("open position reported a profit")
	}
}

func TestCreateBotRequestDefaults(t *testing.T) {
	req := CreateBotRequest{BotName: "alpha", WalletName: "main"}
	bot := req.ToBot("alice")

	if bot.ExchangeName != DefaultExchangeName || bot.Strategy != DefaultStrategy || bot.Timeframe != DefaultTimeframe {
		t.Errorf("string defaults not applied: %+v", bot)
	}
	if !bot.ReinvestGains || !bot.AdjustWithProfitsIfLoss || !bot.Simulation || bot.Active {
		t.Errorf("bool defaults not applied: %+v", bot)
	}
	if bot.PositionPercentInvest != 50 || bot.InvestCapital != 1000 {
		t.Errorf("sizing defaults not applied: %+v", bot)
	}
	if bot.Pairs == nil || len(bot.Pairs) != 0 {
		t.Errorf("pairs = %#v, want empty slice", bot.Pairs)
	}
	if bot.Owner != "alice" {
		t.Errorf("owner = %q", bot.Owner)
	}
}

func TestCreateBotRequestOverrides(t *testing.T) {
	no := false
	exchange := "Kraken"
	req := CreateBotRequest{
		BotName:       "beta",
		WalletName:    "main",
		ExchangeName:  &exchange,
		Pairs:         []string{"BTC/USDT"},
		Simulation:    &no,
		InvestCapital: f(250),
	}
	bot := req.ToBot("bob")

	if bot.ExchangeName != "Kraken" || bot.Simulation || bot.InvestCapital != 250 {
		t.Errorf("overrides ignored: %+v", bot)
	}
	if len(bot.Pairs) != 1 || bot.Pairs[0] != "BTC/USDT" {
		t.Errorf("pairs = %v", bot.Pairs)
	}
}
