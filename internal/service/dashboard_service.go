package service

import (
	"context"
	"errors"
	"math"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"

	"golang.org/x/sync/errgroup"
)

// DashboardService derives read-only analytics from the position ledger
type DashboardService struct {
	bots      repository.BotStore
	positions repository.PositionStore
	clock     Clock
}

func NewDashboardService(bots repository.BotStore, positions repository.PositionStore, clock Clock) *DashboardService {
	return &DashboardService{
		bots:      bots,
		positions: positions,
		clock:     clock,
	}
}

func (s *DashboardService) closedPositions(ctx context.Context, botName string) ([]model.Position, error) {
	bot, err := resolveBot(ctx, s.bots, botName)
	if err != nil {
		return nil, err
	}
	closed, err := s.positions.ListClosed(ctx, bot.BotID)
	if err != nil {
		return nil, util.ErrStorage("Failed to load closed positions", err)
	}
	return closed, nil
}

// Overview summarizes profit and win rate over all time, the last 7 days and
// the last 30 days
func (s *DashboardService) Overview(ctx context.Context, botName string) (*model.Overview, error) {
	closed, err := s.closedPositions(ctx, botName)
	if err != nil {
		return nil, err
	}
	overview := ComputeOverview(closed, s.clock.Now())
	return &overview, nil
}

// Performance buckets realized profit by day, ISO week or month of sale
func (s *DashboardService) Performance(ctx context.Context, botName, interval string) (*model.Performance, error) {
	if interval == "" {
		interval = model.IntervalDaily
	}
	if !ValidInterval(interval) {
		return nil, util.ErrValidation("interval must be one of daily, weekly, monthly")
	}

	closed, err := s.closedPositions(ctx, botName)
	if err != nil {
		return nil, err
	}

	return &model.Performance{
		Interval: interval,
		Data:     BuildPerformance(closed, interval),
	}, nil
}

// RecentTrades pages through all positions of a bot, most recent activity
// first. limit is capped at util.MaxLimit.
func (s *DashboardService) RecentTrades(ctx context.Context, botName string, page, limit int) (*model.RecentTrades, error) {
	if page < 1 || limit < 1 {
		return nil, util.ErrValidation("page and limit must be positive")
	}
	if limit > util.MaxLimit {
		limit = util.MaxLimit
	}

	bot, err := resolveBot(ctx, s.bots, botName)
	if err != nil {
		return nil, err
	}

	var (
		total     int64
		positions []model.Position
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.positions.CountByBot(gctx, bot.BotID)
		return err
	})
	// an offset that overflows int is past any ledger's last row
	if page-1 <= math.MaxInt/limit {
		g.Go(func() error {
			var err error
			positions, err = s.positions.PageByBot(gctx, bot.BotID, limit, (page-1)*limit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, util.ErrStorage("Failed to load trade history", err)
	}

	now := s.clock.Now()
	trades := make([]model.TradeRow, 0, len(positions))
	for i := range positions {
		trades = append(trades, TradeRowFrom(&positions[i], now))
	}

	return &model.RecentTrades{
		Trades: trades,
		Pagination: model.PageInfo{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: util.CeilDiv(total, int64(limit)),
		},
	}, nil
}

// TradeDetail returns one position with its bot and log flags
func (s *DashboardService) TradeDetail(ctx context.Context, positionID int64) (*model.Position, error) {
	pos, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrPositionNotFound()
		}
		return nil, util.ErrStorage("Failed to load position", err)
	}
	return pos, nil
}
