package redis

import "fmt"

// Redis key patterns for the application
// Following the pattern: entity:id or entity:id:attribute

// User keys
func UserKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func UserByUsernameKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

// Session keys
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func UserSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

// Token blacklist
func TokenBlacklistKey(token string) string {
	return fmt.Sprintf("token_blacklist:%s", token)
}

// Wallet keys
func WalletKey(name string) string {
	return fmt.Sprintf("wallet:%s", name)
}

// WalletAccessKey holds the usernames allowed to use a wallet
func WalletAccessKey(name string) string {
	return fmt.Sprintf("wallet_access:%s", name)
}

// UserWalletsKey holds the wallet names a user can access
func UserWalletsKey(username string) string {
	return fmt.Sprintf("user_wallets:%s", username)
}

// Rate limiting keys
func RateLimitKey(identifier, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, identifier)
}

// Pub/Sub channels
const (
	ChannelPositionUpdate = "channel:position_update"
)
