// Package storetest holds a behavioural suite every repository.Ledger
// backend must pass.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"github.com/shopspring/decimal"
)

// Factory returns an empty ledger for one subtest
type Factory func(t *testing.T) repository.Ledger

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against ledgers produced by newLedger
func Run(t *testing.T, newLedger Factory) {
	t.Run("BotCreateAndResolve", func(t *testing.T) { testBotCreateAndResolve(t, newLedger(t)) })
	t.Run("OpenCreatesLogRow", func(t *testing.T) { testOpenCreatesLogRow(t, newLedger(t)) })
	t.Run("CloseDerivesRatioAndDuration", func(t *testing.T) { testCloseDerives(t, newLedger(t)) })
	t.Run("CloseUnknownLeavesStoreUnchanged", func(t *testing.T) { testCloseUnknown(t, newLedger(t)) })
	t.Run("ReCloseOverwrites", func(t *testing.T) { testReClose(t, newLedger(t)) })
	t.Run("CloseZeroBuyValueHasNoRatio", func(t *testing.T) { testZeroBuyValue(t, newLedger(t)) })
	t.Run("LogFlags", func(t *testing.T) { testLogFlags(t, newLedger(t)) })
	t.Run("Ordering", func(t *testing.T) { testOrdering(t, newLedger(t)) })
	t.Run("FundSnapshots", func(t *testing.T) { testFunds(t, newLedger(t)) })
}

// MustBot creates a bot with default settings
func MustBot(t *testing.T, l repository.Ledger, name string) *model.Bot {
	t.Helper()
	req := model.CreateBotRequest{BotName: name, WalletName: "main"}
	bot := req.ToBot("tester")
	bot.CreatedAt = base
	if err := l.Bots.Create(context.Background(), bot); err != nil {
		t.Fatalf("create bot %s: %v", name, err)
	}
	return bot
}

// MustOpen opens a position bought at the given time
func MustOpen(t *testing.T, l repository.Ledger, botID int64, buyValue float64, at time.Time) int64 {
	t.Helper()
	id, err := l.Positions.Open(context.Background(), &model.Position{
		BotID:       botID,
		BuyOrderID:  "buy-1",
		BuyPrice:    100,
		BuyQuantity: buyValue / 100,
		BuyFees:     1,
		BuyValue:    buyValue,
		BuyDate:     at,
		Exchange:    "Binance",
		Pair:        "BTC/USDT",
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}
	return id
}

func sellOrder(value float64) model.SellOrder {
	return model.SellOrder{OrderID: "sell-1", Price: 110, Quantity: 2, Fees: 1, Value: value}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testBotCreateAndResolve(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	if bot.BotID == 0 {
		t.Fatal("bot id not assigned")
	}
	MustBot(t, l, "aardvark")

	dup := &model.Bot{BotName: "alpha", Owner: "x", WalletName: "main", CreatedAt: base}
	if err := l.Bots.Create(ctx, dup); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("duplicate create err = %v, want ErrAlreadyExists", err)
	}

	got, err := l.Bots.GetByName(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.BotID != bot.BotID || got.ExchangeName != model.DefaultExchangeName || !got.Simulation || got.Active {
		t.Errorf("unexpected bot: %+v", got)
	}
	if got.Pairs == nil || len(got.Pairs) != 0 {
		t.Errorf("pairs = %#v", got.Pairs)
	}

	if _, err := l.Bots.GetByName(ctx, "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing bot err = %v", err)
	}

	bots, err := l.Bots.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bots) != 2 || bots[0].BotName != "aardvark" || bots[1].BotName != "alpha" {
		t.Errorf("List = %+v", bots)
	}
}

func testOpenCreatesLogRow(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	first := MustOpen(t, l, bot.BotID, 200, base)
	second := MustOpen(t, l, bot.BotID, 200, base)
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	p, err := l.Positions.GetByID(ctx, first)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !p.IsOpen() || p.SellValue != nil || p.Ratio != nil || p.PositionDuration != nil {
		t.Errorf("new position should be open with no sell side: %+v", p)
	}
	if p.BuyLog || p.SellLog {
		t.Errorf("log flags should default to false: %+v", p)
	}
	if p.BotName != "alpha" || !p.BuyDate.Equal(base) {
		t.Errorf("bot name %q buy date %v", p.BotName, p.BuyDate)
	}

	if _, err := l.Positions.GetByID(ctx, second+100); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing position err = %v", err)
	}
}

func testCloseDerives(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	id := MustOpen(t, l, bot.BotID, 200, base)

	closedAt := base.Add(90*time.Minute + 30*time.Second)
	if err := l.Positions.Close(ctx, id, sellOrder(220), closedAt, nil); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p, err := l.Positions.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.IsOpen() || !p.SellDate.Equal(closedAt) {
		t.Fatalf("sell date = %v, want %v", p.SellDate, closedAt)
	}
	if p.Ratio == nil || !near(*p.Ratio, 0.1) {
		t.Errorf("ratio = %v, want 0.1", p.Ratio)
	}
	if p.PositionDuration == nil || *p.PositionDuration != 5430 {
		t.Errorf("duration = %v, want 5430", p.PositionDuration)
	}
	if p.SellOrderID == nil || *p.SellOrderID != "sell-1" || *p.SellValue != 220 || *p.SellFees != 1 {
		t.Errorf("sell side not stored: %+v", p)
	}
	if p.SellLog {
		t.Error("sell_log changed without being requested")
	}
}

func testCloseUnknown(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	id := MustOpen(t, l, bot.BotID, 200, base)

	err := l.Positions.Close(ctx, id+1000, sellOrder(220), base.Add(time.Hour), nil)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Close unknown err = %v, want ErrNotFound", err)
	}

	n, err := l.Positions.CountByBot(ctx, bot.BotID)
	if err != nil || n != 1 {
		t.Fatalf("CountByBot = %d, %v", n, err)
	}
	p, _ := l.Positions.GetByID(ctx, id)
	if !p.IsOpen() {
		t.Error("unrelated position was modified")
	}
}

func testReClose(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	id := MustOpen(t, l, bot.BotID, 200, base)

	if err := l.Positions.Close(ctx, id, sellOrder(220), base.Add(time.Hour), nil); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	second := base.Add(2 * time.Hour)
	if err := l.Positions.Close(ctx, id, sellOrder(180), second, nil); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	p, _ := l.Positions.GetByID(ctx, id)
	if *p.SellValue != 180 || !p.SellDate.Equal(second) {
		t.Errorf("second close did not overwrite: %+v", p)
	}
	if p.Ratio == nil || !near(*p.Ratio, -0.1) {
		t.Errorf("ratio = %v, want -0.1", p.Ratio)
	}
	if *p.PositionDuration != 7200 {
		t.Errorf("duration = %d, want 7200", *p.PositionDuration)
	}
}

func testZeroBuyValue(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	id := MustOpen(t, l, bot.BotID, 0, base)

	if err := l.Positions.Close(ctx, id, sellOrder(10), base.Add(time.Minute), nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p, _ := l.Positions.GetByID(ctx, id)
	if p.Ratio != nil {
		t.Errorf("ratio = %v, want nil for zero buy value", *p.Ratio)
	}
	if p.IsOpen() {
		t.Error("position still open")
	}
}

func testLogFlags(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	id := MustOpen(t, l, bot.BotID, 200, base)

	yes := true
	if err := l.Positions.SetLogFlags(ctx, id, &yes, nil); err != nil {
		t.Fatalf("SetLogFlags: %v", err)
	}
	p, _ := l.Positions.GetByID(ctx, id)
	if !p.BuyLog || p.SellLog {
		t.Errorf("flags = buy %v sell %v", p.BuyLog, p.SellLog)
	}

	if err := l.Positions.Close(ctx, id, sellOrder(220), base.Add(time.Hour), &yes); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p, _ = l.Positions.GetByID(ctx, id)
	if !p.BuyLog || !p.SellLog {
		t.Errorf("flags after close = buy %v sell %v", p.BuyLog, p.SellLog)
	}

	if err := l.Positions.SetLogFlags(ctx, id+1000, &yes, nil); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("SetLogFlags unknown err = %v", err)
	}
}

func testOrdering(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	bot := MustBot(t, l, "alpha")
	other := MustBot(t, l, "beta")

	// a: bought day 0, sold day 5. b: bought day 1, still open.
	// c: bought day 2, sold day 3. d: other bot.
	a := MustOpen(t, l, bot.BotID, 100, base)
	b := MustOpen(t, l, bot.BotID, 100, base.Add(24*time.Hour))
	c := MustOpen(t, l, bot.BotID, 100, base.Add(48*time.Hour))
	d := MustOpen(t, l, other.BotID, 100, base)
	day := 24 * time.Hour
	if err := l.Positions.Close(ctx, a, sellOrder(110), base.Add(5*day), nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Positions.Close(ctx, c, sellOrder(90), base.Add(3*day), nil); err != nil {
		t.Fatal(err)
	}

	closed, err := l.Positions.ListClosed(ctx, bot.BotID)
	if err != nil {
		t.Fatalf("ListClosed: %v", err)
	}
	if ids(closed) != ids2(c, a) {
		t.Errorf("ListClosed order = %v, want [%d %d]", ids(closed), c, a)
	}

	page, err := l.Positions.PageByBot(ctx, bot.BotID, 2, 0)
	if err != nil {
		t.Fatalf("PageByBot: %v", err)
	}
	if ids(page) != ids2(a, c) {
		t.Errorf("page 1 = %v, want [%d %d]", ids(page), a, c)
	}
	page, _ = l.Positions.PageByBot(ctx, bot.BotID, 2, 2)
	if len(page) != 1 || page[0].PositionID != b {
		t.Errorf("page 2 = %v, want [%d]", ids(page), b)
	}

	n, _ := l.Positions.CountByBot(ctx, bot.BotID)
	if n != 3 {
		t.Errorf("CountByBot = %d, want 3", n)
	}

	all, _ := l.Positions.List(ctx, 0)
	if len(all) != 4 {
		t.Errorf("List(0) returned %d positions", len(all))
	}
	mine, _ := l.Positions.List(ctx, other.BotID)
	if len(mine) != 1 || mine[0].PositionID != d {
		t.Errorf("List(other) = %v", ids(mine))
	}
	if all[0].PositionID != c {
		t.Errorf("List newest buy first: got %d first, want %d", all[0].PositionID, c)
	}
}

func testFunds(t *testing.T, l repository.Ledger) {
	ctx := context.Background()
	alpha := MustBot(t, l, "alpha")
	beta := MustBot(t, l, "beta")

	if _, err := l.Funds.Latest(ctx, alpha.BotID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Latest with no snapshots err = %v", err)
	}

	first, err := l.Funds.Create(ctx, alpha.BotID, decimal.RequireFromString("1000"), base)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.LastPositionID != 0 {
		t.Errorf("last_position_id = %d, want 0", first.LastPositionID)
	}

	pid := MustOpen(t, l, alpha.BotID, 100, base)
	second, err := l.Funds.Create(ctx, alpha.BotID, decimal.RequireFromString("1234.12345678"), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.LastPositionID != pid || second.ID <= first.ID {
		t.Errorf("second snapshot = %+v", second)
	}
	if _, err := l.Funds.Create(ctx, beta.BotID, decimal.RequireFromString("50.5"), base); err != nil {
		t.Fatalf("Create beta: %v", err)
	}

	latest, err := l.Funds.Latest(ctx, alpha.BotID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != second.ID || !latest.Funds.Equal(decimal.RequireFromString("1234.12345678")) {
		t.Errorf("Latest = %+v", latest)
	}
	if latest.BotName != "alpha" {
		t.Errorf("bot name = %q", latest.BotName)
	}

	all, err := l.Funds.LatestAll(ctx)
	if err != nil {
		t.Fatalf("LatestAll: %v", err)
	}
	if len(all) != 2 || all[0].BotName != "alpha" || all[1].BotName != "beta" {
		t.Fatalf("LatestAll = %+v", all)
	}
	if all[0].ID != second.ID || !all[1].Funds.Equal(decimal.RequireFromString("50.5")) {
		t.Errorf("LatestAll picked wrong snapshots: %+v", all)
	}
}

func ids(ps []model.Position) [2]int64 {
	var out [2]int64
	for i := 0; i < len(ps) && i < 2; i++ {
		out[i] = ps[i].PositionID
	}
	return out
}

func ids2(a, b int64) [2]int64 {
	return [2]int64{a, b}
}
