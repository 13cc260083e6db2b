package service

import (
	"context"
	"testing"

	"aegis/backend/internal/model"
	"aegis/backend/internal/util"
)

func TestBotCreateDefaults(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	bot := f.mustBot(t, "alpha")
	if bot.BotID == 0 || bot.Owner != "tester" || !bot.CreatedAt.Equal(testEpoch) {
		t.Errorf("bot = %+v", bot)
	}

	got, err := f.bots.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ExchangeName != model.DefaultExchangeName || got.Timeframe != model.DefaultTimeframe || !got.Simulation || got.Active {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestBotCreateErrors(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.mustBot(t, "alpha")

	_, err := f.bots.Create(ctx, "tester", &model.CreateBotRequest{BotName: "alpha", WalletName: "main"})
	wantCode(t, err, util.ErrCodeConflict)

	_, err = f.bots.Create(ctx, "tester", &model.CreateBotRequest{BotName: "beta", WalletName: "cold"})
	wantCode(t, err, util.ErrCodeWalletNotFound)

	_, err = f.bots.Create(ctx, "tester", &model.CreateBotRequest{BotName: "beta", WalletName: "shared"})
	wantCode(t, err, util.ErrCodeForbidden)

	_, err = f.bots.Create(ctx, "tester", &model.CreateBotRequest{BotName: "", WalletName: "main"})
	wantCode(t, err, util.ErrCodeValidation)

	_, err = f.bots.Get(ctx, "ghost")
	wantCode(t, err, util.ErrCodeBotNotFound)

	bots, err := f.bots.List(ctx)
	if err != nil || len(bots) != 1 {
		t.Errorf("List = %+v, %v", bots, err)
	}
}
