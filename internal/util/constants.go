package util

// Pagination bounds for list endpoints
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Position status labels reported by trade history
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)
