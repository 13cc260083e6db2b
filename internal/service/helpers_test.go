package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/repository/sqlite"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var testEpoch = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func init() {
	crypto.BcryptCost = bcrypt.MinCost
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.PositionEvent
	err    error
}

func (p *recordingPublisher) PublishPosition(_ context.Context, e model.PositionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// walletSet maps wallet name to the single user with access to it
type walletSet map[string]string

func (w walletSet) Exists(_ context.Context, name string) (bool, error) {
	_, ok := w[name]
	return ok, nil
}

func (w walletSet) HasAccess(_ context.Context, name, username string) (bool, error) {
	return w[name] == username, nil
}

func newTestLedger(t *testing.T) repository.Ledger {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.Ledger()
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ledgerFixture wires the ledger services over one in-memory database
type ledgerFixture struct {
	ledger    repository.Ledger
	clock     *fixedClock
	publisher *recordingPublisher
	bots      *BotService
	positions *PositionService
	dashboard *DashboardService
	funds     *FundService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ledger := newTestLedger(t)
	clock := newFixedClock(testEpoch)
	pub := &recordingPublisher{}
	log := logger.Nop()

	return &ledgerFixture{
		ledger:    ledger,
		clock:     clock,
		publisher: pub,
		bots:      NewBotService(ledger.Bots, walletSet{"main": "tester", "shared": "bob"}, clock, log),
		positions: NewPositionService(ledger.Bots, ledger.Positions, pub, clock, log),
		dashboard: NewDashboardService(ledger.Bots, ledger.Positions, clock),
		funds:     NewFundService(ledger.Bots, ledger.Funds, clock, log),
	}
}

func (f *ledgerFixture) mustBot(t *testing.T, name string) *model.Bot {
	t.Helper()
	bot, err := f.bots.Create(context.Background(), "tester", &model.CreateBotRequest{BotName: name, WalletName: "main"})
	if err != nil {
		t.Fatalf("create bot: %v", err)
	}
	return bot
}

func f64(v float64) *float64 { return &v }

func openReq(bot string, price, qty, fees, value float64) *model.OpenPositionRequest {
	return &model.OpenPositionRequest{
		BotName:     bot,
		BuyOrderID:  "buy-1",
		BuyPrice:    f64(price),
		BuyQuantity: f64(qty),
		BuyFees:     f64(fees),
		BuyValue:    f64(value),
		Exchange:    "Binance",
		Pair:        "BTC/USDT",
	}
}

func closeReq(price, qty, fees, value float64) *model.ClosePositionRequest {
	return &model.ClosePositionRequest{
		SellOrderID:  "sell-1",
		SellPrice:    f64(price),
		SellQuantity: f64(qty),
		SellFees:     f64(fees),
		SellValue:    f64(value),
	}
}

// trade opens a position at the current clock time and closes it after hold
func (f *ledgerFixture) trade(t *testing.T, bot string, buyValue, sellValue float64, hold time.Duration) int64 {
	t.Helper()
	ctx := context.Background()
	res, err := f.positions.Open(ctx, openReq(bot, 100, buyValue/100, 0, buyValue))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.clock.Advance(hold)
	if _, err := f.positions.Close(ctx, res.PositionID, closeReq(100, buyValue/100, 0, sellValue)); err != nil {
		t.Fatalf("close: %v", err)
	}
	return res.PositionID
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr := util.GetAppError(err)
	if appErr == nil {
		t.Fatalf("err = %v, want AppError %s", err, code)
	}
	if appErr.Code != code {
		t.Fatalf("code = %s (%s), want %s", appErr.Code, appErr.Message, code)
	}
}
