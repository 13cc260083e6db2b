package model

import "time"

// Performance intervals
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
)

// Overview is the windowed summary of a bot's closed positions
type Overview struct {
	TotalBalance TotalBalance `json:"total_balance"`
	TotalProfit  TotalProfit  `json:"total_profit"`
	WinRate      WinRate      `json:"win_rate"`
}

type TotalBalance struct {
	Amount                float64 `json:"amount"`
	WeekChangePercentage  float64 `json:"week_change_percentage"`
	MonthChangePercentage float64 `json:"month_change_percentage"`
}

type TotalProfit struct {
	AllTime float64      `json:"all_time"`
	Week    WindowProfit `json:"week"`
	Month   WindowProfit `json:"month"`
}

type WindowProfit struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type WinRate struct {
	AllTime float64 `json:"all_time"`
	Week    float64 `json:"week"`
	Month   float64 `json:"month"`
}

// PerformancePoint is one calendar bucket of a performance series
type PerformancePoint struct {
	Date    string  `json:"date"`
	Profit  float64 `json:"profit"`
	Balance float64 `json:"balance"`
	Trades  int     `json:"trades"`
}

// Performance is a bucketed profit series with a running balance
type Performance struct {
	Interval string             `json:"interval"`
	Data     []PerformancePoint `json:"data"`
}

// TradeRow is one row of the recent trades listing
type TradeRow struct {
	PositionID           int64      `json:"position_id"`
	Pair                 string     `json:"pair"`
	Exchange             string     `json:"exchange"`
	EntryPrice           float64    `json:"entry_price"`
	ExitPrice            *float64   `json:"exit_price"`
	BuyValue             float64    `json:"buy_value"`
	SellValue            *float64   `json:"sell_value"`
	BuyFees              float64    `json:"buy_fees"`
	SellFees             *float64   `json:"sell_fees"`
	BuyDate              time.Time  `json:"buy_date"`
	SellDate             *time.Time `json:"sell_date"`
	ProfitLoss           *float64   `json:"profit_loss"`
	ProfitLossPercentage *float64   `json:"profit_loss_percentage"`
	DurationDays         int64      `json:"duration_days"`
	Status               string     `json:"status"`
}

// PageInfo describes the slice returned by a paginated listing
type PageInfo struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// RecentTrades is the paginated trade history of a bot
type RecentTrades struct {
	Trades     []TradeRow `json:"trades"`
	Pagination PageInfo   `json:"pagination"`
}

// PositionEvent is published after a position is opened or closed
type PositionEvent struct {
	Type       string    `json:"type"`
	PositionID int64     `json:"position_id"`
	BotID      int64     `json:"bot_id"`
	BotName    string    `json:"bot_name"`
	Pair       string    `json:"pair,omitempty"`
	Ratio      *float64  `json:"ratio,omitempty"`
	At         time.Time `json:"at"`
}

// Position event types
const (
	EventPositionOpened = "position.opened"
	EventPositionClosed = "position.closed"
)
