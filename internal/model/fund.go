package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundScale is the number of decimal places funds are stored with
const FundScale = 8

// FundSnapshot records a bot's capital at a point in time. Snapshots are
// append-only; the one with the highest ID is the bot's current funds.
type FundSnapshot struct {
	ID             int64           `json:"id"`
	BotID          int64           `json:"bot_id"`
	BotName        string          `json:"bot_name,omitempty"`
	LastPositionID int64           `json:"last_position_id"`
	Funds          decimal.Decimal `json:"funds"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateFundRequest is the body of POST /funds
type CreateFundRequest struct {
	BotName string           `json:"bot_name" binding:"required"`
	Funds   *decimal.Decimal `json:"funds" binding:"required"`
}
