package model

import (
	"time"
)

// Position is one trade in the ledger: a buy, and once closed, the matching sell.
// Sell fields, Ratio and PositionDuration are nil while the position is open.
type Position struct {
	PositionID int64  `json:"position_id"`
	BotID      int64  `json:"bot_id"`
	BotName    string `json:"bot_name,omitempty"`

	// Buy side, immutable after Open
	BuyOrderID  string    `json:"buy_order_id"`
	BuyPrice    float64   `json:"buy_price"`
	BuyQuantity float64   `json:"buy_quantity"`
	BuyFees     float64   `json:"buy_fees"`
	BuyValue    float64   `json:"buy_value"`
	BuyDate     time.Time `json:"buy_date"`
	BuySignals  *string   `json:"buy_signals"`
	Exchange    string    `json:"exchange"`
	Pair        string    `json:"pair"`
	FundSlot    int       `json:"fund_slot"`

	// Sell side
	SellOrderID  *string    `json:"sell_order_id"`
	SellPrice    *float64   `json:"sell_price"`
	SellQuantity *float64   `json:"sell_quantity"`
	SellFees     *float64   `json:"sell_fees"`
	SellValue    *float64   `json:"sell_value"`
	SellDate     *time.Time `json:"sell_date"`
	SellSignals  *string    `json:"sell_signals"`

	// Derived at close
	Ratio            *float64 `json:"ratio"`
	PositionDuration *int64   `json:"position_duration"`

	// Operator acknowledgement flags
	BuyLog  bool `json:"buy_log"`
	SellLog bool `json:"sell_log"`
}

// IsOpen reports whether the position has not been sold yet
func (p *Position) IsOpen() bool {
	return p.SellDate == nil
}

// Profit returns sell_value - buy_value - buy_fees - sell_fees. ok is false
// for open positions.
func (p *Position) Profit() (profit float64, ok bool) {
	if p.IsOpen() || p.SellValue == nil {
		return 0, false
	}
	var sellFees float64
	if p.SellFees != nil {
		sellFees = *p.SellFees
	}
	return *p.SellValue - p.BuyValue - p.BuyFees - sellFees, true
}

// SellOrder carries the sell side of a Close
type SellOrder struct {
	OrderID  string
	Price    float64
	Quantity float64
	Fees     float64
	Value    float64
	Signals  *string
}

// OpenPositionRequest is the body of POST /positions
type OpenPositionRequest struct {
	BotName     string   `json:"bot_name" binding:"required"`
	BuyOrderID  string   `json:"buy_order_id" binding:"required"`
	BuyPrice    *float64 `json:"buy_price" binding:"required"`
	BuyQuantity *float64 `json:"buy_quantity" binding:"required"`
	BuyFees     *float64 `json:"buy_fees" binding:"required"`
	BuyValue    *float64 `json:"buy_value" binding:"required"`
	Exchange    string   `json:"exchange" binding:"required"`
	Pair        string   `json:"pair" binding:"required"`
	BuySignals  *string  `json:"buy_signals"`
	FundSlot    *int     `json:"fund_slot" binding:"omitempty,gte=0"`
}

// ClosePositionRequest is the body of PUT /positions/:id/sell
type ClosePositionRequest struct {
	SellOrderID  string   `json:"sell_order_id" binding:"required"`
	SellPrice    *float64 `json:"sell_price" binding:"required"`
	SellQuantity *float64 `json:"sell_quantity" binding:"required"`
	SellFees     *float64 `json:"sell_fees" binding:"required"`
	SellValue    *float64 `json:"sell_value" binding:"required"`
	SellSignals  *string  `json:"sell_signals"`
	SellLog      *bool    `json:"sell_log"`
}

// PositionLogRequest is the body of PATCH /positions/:id/log
type PositionLogRequest struct {
	BuyLog  *bool `json:"buy_log"`
	SellLog *bool `json:"sell_log"`
}

// OpenPositionResponse is returned by POST /positions
type OpenPositionResponse struct {
	PositionID int64 `json:"position_id"`
}
