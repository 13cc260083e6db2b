package model

import "time"

// NetworkEVM is the default wallet network; its addresses are hex checked
const NetworkEVM = "evm"

// Wallet is a custody record. Keys are stored sealed and only decrypted for
// the wallet owner.
type Wallet struct {
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Network       string    `json:"network"`
	EncryptedKeys string    `json:"encrypted_keys"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// WalletSummary is the client-facing view of a wallet without key material
type WalletSummary struct {
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Network   string    `json:"network"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// WalletDetail is returned to the owner and includes the decrypted keys
type WalletDetail struct {
	WalletSummary
	Keys map[string]string `json:"keys"`
}

func (w *Wallet) Summary() WalletSummary {
	return WalletSummary{
		Name:      w.Name,
		Address:   w.Address,
		Network:   w.Network,
		CreatedBy: w.CreatedBy,
		CreatedAt: w.CreatedAt,
	}
}

// CreateWalletRequest is the body of POST /wallets
type CreateWalletRequest struct {
	Name    string            `json:"name" binding:"required,min=1,max=100"`
	Address string            `json:"address" binding:"required"`
	Network string            `json:"network"`
	Keys    map[string]string `json:"keys" binding:"required,min=1"`
}

// WalletAccessRequest is the body of POST /wallets/access
type WalletAccessRequest struct {
	Username   string `json:"username" binding:"required"`
	WalletName string `json:"wallet_name" binding:"required"`
}
