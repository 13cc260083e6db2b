package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PositionStore implements repository.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelect = `
	SELECT p.position_id, p.bot_id, b.bot_name,
		p.buy_order_id, p.buy_price, p.buy_quantity, p.buy_fees, p.buy_value,
		p.buy_date, p.buy_signals, p.exchange, p.pair, p.fund_slot,
		p.sell_order_id, p.sell_price, p.sell_quantity, p.sell_fees, p.sell_value,
		p.sell_date, p.sell_signals, p.ratio, p.position_duration,
		COALESCE(l.buy_log, FALSE), COALESCE(l.sell_log, FALSE)
	FROM positions p
	JOIN bots b ON b.bot_id = p.bot_id
	LEFT JOIN position_logs l ON l.position_id = p.position_id`

func scanPosition(row pgx.Row) (model.Position, error) {
	var p model.Position
	err := row.Scan(
		&p.PositionID, &p.BotID, &p.BotName,
		&p.BuyOrderID, &p.BuyPrice, &p.BuyQuantity, &p.BuyFees, &p.BuyValue,
		&p.BuyDate, &p.BuySignals, &p.Exchange, &p.Pair, &p.FundSlot,
		&p.SellOrderID, &p.SellPrice, &p.SellQuantity, &p.SellFees, &p.SellValue,
		&p.SellDate, &p.SellSignals, &p.Ratio, &p.PositionDuration,
		&p.BuyLog, &p.SellLog,
	)
	if err != nil {
		return model.Position{}, err
	}
	p.BuyDate = p.BuyDate.UTC()
	if p.SellDate != nil {
		sold := p.SellDate.UTC()
		p.SellDate = &sold
	}
	return p, nil
}

func collectPositions(rows pgx.Rows) ([]model.Position, error) {
	defer rows.Close()
	positions := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Open inserts the position and its log row atomically.
func (s *PositionStore) Open(ctx context.Context, pos *model.Position) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO positions (
			bot_id, buy_order_id, buy_price, buy_quantity, buy_fees, buy_value,
			buy_date, buy_signals, exchange, pair, fund_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING position_id`,
		pos.BotID, pos.BuyOrderID, pos.BuyPrice, pos.BuyQuantity, pos.BuyFees, pos.BuyValue,
		pos.BuyDate, pos.BuySignals, pos.Exchange, pos.Pair, pos.FundSlot,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert position: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO position_logs (position_id, buy_log, sell_log) VALUES ($1, FALSE, FALSE)`, id,
	); err != nil {
		return 0, fmt.Errorf("postgres: insert position log %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit open %d: %w", id, err)
	}
	return id, nil
}

// Close finalizes the sell side. Ratio and duration are computed by the
// UPDATE itself from the row's stored buy_value and buy_date, so the read and
// the write happen under the same row lock. Re-closing overwrites.
func (s *PositionStore) Close(ctx context.Context, positionID int64, sell model.SellOrder, closedAt time.Time, sellLog *bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `
		UPDATE positions SET
			sell_order_id     = $2,
			sell_price        = $3,
			sell_quantity     = $4,
			sell_fees         = $5,
			sell_value        = $6,
			sell_signals      = $7,
			sell_date         = $8,
			ratio             = CASE WHEN buy_value = 0 THEN NULL
			                         ELSE ($6::DOUBLE PRECISION - buy_value) / buy_value END,
			position_duration = FLOOR(EXTRACT(EPOCH FROM ($8::TIMESTAMPTZ - buy_date)))::BIGINT
		WHERE position_id = $1`

	tag, err := tx.Exec(ctx, query,
		positionID, sell.OrderID, sell.Price, sell.Quantity, sell.Fees, sell.Value,
		sell.Signals, closedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: close position %d: %w", positionID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if sellLog != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE position_logs SET sell_log = $2 WHERE position_id = $1`, positionID, *sellLog,
		); err != nil {
			return fmt.Errorf("postgres: update sell_log %d: %w", positionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit close %d: %w", positionID, err)
	}
	return nil
}

// SetLogFlags updates whichever flags are non-nil.
func (s *PositionStore) SetLogFlags(ctx context.Context, positionID int64, buyLog, sellLog *bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE position_logs SET
			buy_log  = COALESCE($2, buy_log),
			sell_log = COALESCE($3, sell_log)
		WHERE position_id = $1`,
		positionID, buyLog, sellLog,
	)
	if err != nil {
		return fmt.Errorf("postgres: update position log %d: %w", positionID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID returns one position with bot name and log flags.
func (s *PositionStore) GetByID(ctx context.Context, positionID int64) (*model.Position, error) {
	p, err := scanPosition(s.pool.QueryRow(ctx, positionSelect+` WHERE p.position_id = $1`, positionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get position %d: %w", positionID, err)
	}
	return &p, nil
}

// List returns positions newest buy first; botID 0 lists all bots.
func (s *PositionStore) List(ctx context.Context, botID int64) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		positionSelect+` WHERE ($1::BIGINT = 0 OR p.bot_id = $1) ORDER BY p.buy_date DESC, p.position_id DESC`,
		botID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	positions, err := collectPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	return positions, nil
}

// ListClosed returns the bot's closed positions in sell order.
func (s *PositionStore) ListClosed(ctx context.Context, botID int64) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		positionSelect+` WHERE p.bot_id = $1 AND p.sell_date IS NOT NULL ORDER BY p.sell_date ASC, p.position_id ASC`,
		botID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list closed positions: %w", err)
	}
	positions, err := collectPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list closed positions: %w", err)
	}
	return positions, nil
}

// CountByBot counts every position of the bot, open or closed.
func (s *PositionStore) CountByBot(ctx context.Context, botID int64) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE bot_id = $1`, botID).Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres: count positions: %w", err)
	}
	return total, nil
}

// PageByBot returns one page of the bot's positions by latest activity.
func (s *PositionStore) PageByBot(ctx context.Context, botID int64, limit, offset int) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		positionSelect+` WHERE p.bot_id = $1
		ORDER BY COALESCE(p.sell_date, p.buy_date) DESC, p.position_id DESC
		LIMIT $2 OFFSET $3`,
		botID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: page positions: %w", err)
	}
	positions, err := collectPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: page positions: %w", err)
	}
	return positions, nil
}
