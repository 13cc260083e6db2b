// Package repository provides data access for the application. Users, sessions
// and wallets live in Redis; the trade ledger (bots, positions, fund
// snapshots) lives in SQL behind the store interfaces below, implemented by
// the postgres and sqlite subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"aegis/backend/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrAlreadyExists = errors.New("repository: already exists")
)

// BotStore is the bot directory
type BotStore interface {
	// Create inserts bot and fills BotID and CreatedAt. Returns
	// ErrAlreadyExists when the name is taken.
	Create(ctx context.Context, bot *model.Bot) error
	GetByName(ctx context.Context, name string) (*model.Bot, error)
	List(ctx context.Context) ([]model.Bot, error)
}

// PositionStore is the trade ledger
type PositionStore interface {
	// Open inserts the position and its log row in one transaction and
	// returns the assigned id.
	Open(ctx context.Context, pos *model.Position) (int64, error)

	// Close writes the sell side, sell_date = closedAt, and derives ratio and
	// position_duration from the stored buy side in one transaction. A
	// non-nil sellLog updates the log row in the same transaction.
	// Returns ErrNotFound when no position has the id.
	Close(ctx context.Context, positionID int64, sell model.SellOrder, closedAt time.Time, sellLog *bool) error

	// SetLogFlags updates the non-nil flags. Returns ErrNotFound when no log
	// row exists for the id.
	SetLogFlags(ctx context.Context, positionID int64, buyLog, sellLog *bool) error

	// GetByID returns the position joined with its bot name and log flags
	GetByID(ctx context.Context, positionID int64) (*model.Position, error)

	// List returns positions newest buy first. botID 0 lists every bot.
	List(ctx context.Context, botID int64) ([]model.Position, error)

	// ListClosed returns closed positions ordered by sell_date, position_id ascending
	ListClosed(ctx context.Context, botID int64) ([]model.Position, error)

	// CountByBot counts open and closed positions
	CountByBot(ctx context.Context, botID int64) (int64, error)

	// PageByBot orders by coalesce(sell_date, buy_date) desc, position_id desc
	PageByBot(ctx context.Context, botID int64, limit, offset int) ([]model.Position, error)
}

// FundStore is the append-only fund snapshot ledger
type FundStore interface {
	// Create appends a snapshot attributed to the bot's highest position id
	// (0 if it has none), read in the same transaction as the insert.
	Create(ctx context.Context, botID int64, funds decimal.Decimal, at time.Time) (*model.FundSnapshot, error)
	Latest(ctx context.Context, botID int64) (*model.FundSnapshot, error)
	// LatestAll returns the newest snapshot of every bot ordered by bot name
	LatestAll(ctx context.Context) ([]model.FundSnapshot, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ledger groups the SQL stores of one backend
type Ledger struct {
	Bots      BotStore
	Positions PositionStore
	Funds     FundStore
	Health    Pinger
}
