package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BotStore implements repository.BotStore using PostgreSQL.
type BotStore struct {
	pool *pgxpool.Pool
}

func NewBotStore(pool *pgxpool.Pool) *BotStore {
	return &BotStore{pool: pool}
}

const botSelectCols = `bot_id, bot_name, owner, wallet_name, description,
	exchange_name, pairs, strategy, timeframe, reinvest_gains,
	position_percent_invest, invest_capital, adjust_with_profits_if_loss,
	simulation, active, created_at`

func scanBot(row pgx.Row) (model.Bot, error) {
	var b model.Bot
	var pairs []byte
	err := row.Scan(
		&b.BotID, &b.BotName, &b.Owner, &b.WalletName, &b.Description,
		&b.ExchangeName, &pairs, &b.Strategy, &b.Timeframe, &b.ReinvestGains,
		&b.PositionPercentInvest, &b.InvestCapital, &b.AdjustWithProfitsIfLoss,
		&b.Simulation, &b.Active, &b.CreatedAt,
	)
	if err != nil {
		return model.Bot{}, err
	}
	if err := json.Unmarshal(pairs, &b.Pairs); err != nil {
		return model.Bot{}, fmt.Errorf("decode pairs: %w", err)
	}
	if b.Pairs == nil {
		b.Pairs = []string{}
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// Create inserts a bot and fills its id and creation time.
func (s *BotStore) Create(ctx context.Context, bot *model.Bot) error {
	pairs := bot.Pairs
	if pairs == nil {
		pairs = []string{}
	}
	pairsJSON, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("postgres: encode pairs: %w", err)
	}

	const query = `
		INSERT INTO bots (
			bot_name, owner, wallet_name, description,
			exchange_name, pairs, strategy, timeframe, reinvest_gains,
			position_percent_invest, invest_capital, adjust_with_profits_if_loss,
			simulation, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING bot_id, created_at`

	err = s.pool.QueryRow(ctx, query,
		bot.BotName, bot.Owner, bot.WalletName, bot.Description,
		bot.ExchangeName, pairsJSON, bot.Strategy, bot.Timeframe, bot.ReinvestGains,
		bot.PositionPercentInvest, bot.InvestCapital, bot.AdjustWithProfitsIfLoss,
		bot.Simulation, bot.Active,
	).Scan(&bot.BotID, &bot.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create bot %s: %w", bot.BotName, err)
	}
	bot.CreatedAt = bot.CreatedAt.UTC()
	bot.Pairs = pairs
	return nil
}

// GetByName resolves a bot by its unique name.
func (s *BotStore) GetByName(ctx context.Context, name string) (*model.Bot, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+botSelectCols+` FROM bots WHERE bot_name = $1`, name)
	b, err := scanBot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get bot %s: %w", name, err)
	}
	return &b, nil
}

// List returns every bot ordered by name.
func (s *BotStore) List(ctx context.Context) ([]model.Bot, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+botSelectCols+` FROM bots ORDER BY bot_name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bots: %w", err)
	}
	defer rows.Close()

	bots := []model.Bot{}
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bot: %w", err)
		}
		bots = append(bots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bots: %w", err)
	}
	return bots, nil
}
