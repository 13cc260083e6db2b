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
	"github.com/shopspring/decimal"
)

// FundStore implements repository.FundStore using PostgreSQL. Amounts travel
// as text so NUMERIC precision survives the round trip.
type FundStore struct {
	pool *pgxpool.Pool
}

func NewFundStore(pool *pgxpool.Pool) *FundStore {
	return &FundStore{pool: pool}
}

const fundSelect = `
	SELECT f.id, f.bot_id, b.bot_name, f.last_position_id, f.funds::TEXT, f.created_at
	FROM fund_snapshots f
	JOIN bots b ON b.bot_id = f.bot_id`

func scanFund(row pgx.Row) (model.FundSnapshot, error) {
	var f model.FundSnapshot
	var funds string
	if err := row.Scan(&f.ID, &f.BotID, &f.BotName, &f.LastPositionID, &funds, &f.CreatedAt); err != nil {
		return model.FundSnapshot{}, err
	}
	amount, err := decimal.NewFromString(funds)
	if err != nil {
		return model.FundSnapshot{}, fmt.Errorf("parse funds %q: %w", funds, err)
	}
	f.Funds = amount
	f.CreatedAt = f.CreatedAt.UTC()
	return f, nil
}

// Create appends a snapshot, attributing it to the bot's latest position.
func (s *FundStore) Create(ctx context.Context, botID int64, funds decimal.Decimal, at time.Time) (*model.FundSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &model.FundSnapshot{BotID: botID, CreatedAt: at}

	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position_id), 0) FROM positions WHERE bot_id = $1`, botID,
	).Scan(&snap.LastPositionID); err != nil {
		return nil, fmt.Errorf("postgres: last position for bot %d: %w", botID, err)
	}

	var stored string
	if err := tx.QueryRow(ctx, `
		INSERT INTO fund_snapshots (bot_id, last_position_id, funds, created_at)
		VALUES ($1, $2, $3::TEXT::NUMERIC(18, 8), $4)
		RETURNING id, funds::TEXT`,
		botID, snap.LastPositionID, funds.String(), at,
	).Scan(&snap.ID, &stored); err != nil {
		return nil, fmt.Errorf("postgres: insert fund snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit fund snapshot: %w", err)
	}

	snap.Funds, err = decimal.NewFromString(stored)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse funds %q: %w", stored, err)
	}
	return snap, nil
}

// Latest returns the bot's newest snapshot.
func (s *FundStore) Latest(ctx context.Context, botID int64) (*model.FundSnapshot, error) {
	f, err := scanFund(s.pool.QueryRow(ctx, fundSelect+` WHERE f.bot_id = $1 ORDER BY f.id DESC LIMIT 1`, botID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: latest funds for bot %d: %w", botID, err)
	}
	return &f, nil
}

// LatestAll returns the newest snapshot of every bot.
func (s *FundStore) LatestAll(ctx context.Context) ([]model.FundSnapshot, error) {
	rows, err := s.pool.Query(ctx, fundSelect+`
		WHERE f.id IN (SELECT MAX(id) FROM fund_snapshots GROUP BY bot_id)
		ORDER BY b.bot_name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest funds: %w", err)
	}
	defer rows.Close()

	snaps := []model.FundSnapshot{}
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan funds: %w", err)
		}
		snaps = append(snaps, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: latest funds: %w", err)
	}
	return snaps, nil
}
