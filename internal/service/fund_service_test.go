package service

import (
	"context"
	"testing"

	"aegis/backend/internal/model"
	"aegis/backend/internal/util"

	"github.com/shopspring/decimal"
)

func fundReq(bot, amount string) *model.CreateFundRequest {
	d := decimal.RequireFromString(amount)
	return &model.CreateFundRequest{BotName: bot, Funds: &d}
}

func TestFundSnapshots(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.mustBot(t, "alpha")
	f.mustBot(t, "beta")

	first, err := f.funds.Create(ctx, fundReq("alpha", "1000"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.LastPositionID != 0 || first.BotName != "alpha" || !first.CreatedAt.Equal(testEpoch) {
		t.Errorf("first snapshot = %+v", first)
	}

	res, _ := f.positions.Open(ctx, openReq("alpha", 100, 1, 0, 100))
	second, err := f.funds.Create(ctx, fundReq("alpha", "1010.25"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.LastPositionID != res.PositionID {
		t.Errorf("last_position_id = %d, want %d", second.LastPositionID, res.PositionID)
	}

	latest, err := f.funds.Latest(ctx, "alpha")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !latest.Funds.Equal(decimal.RequireFromString("1010.25")) {
		t.Errorf("latest funds = %s", latest.Funds)
	}

	_, err = f.funds.Latest(ctx, "beta")
	wantCode(t, err, util.ErrCodeNotFound)

	all, err := f.funds.LatestAll(ctx)
	if err != nil {
		t.Fatalf("LatestAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != second.ID {
		t.Errorf("LatestAll = %+v", all)
	}
}

func TestFundValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.mustBot(t, "alpha")

	_, err := f.funds.Create(ctx, fundReq("alpha", "0"))
	wantCode(t, err, util.ErrCodeValidation)
	_, err = f.funds.Create(ctx, fundReq("alpha", "0.000000001"))
	wantCode(t, err, util.ErrCodeValidation)
	_, err = f.funds.Create(ctx, fundReq("alpha", "-5"))
	wantCode(t, err, util.ErrCodeValidation)
	_, err = f.funds.Create(ctx, &model.CreateFundRequest{BotName: "alpha"})
	wantCode(t, err, util.ErrCodeValidation)
	_, err = f.funds.Create(ctx, fundReq("ghost", "10"))
	wantCode(t, err, util.ErrCodeBotNotFound)
}
