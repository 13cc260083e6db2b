package repository

import (
	"context"
	"errors"
	"sort"

	"aegis/backend/internal/model"
	"aegis/backend/pkg/redis"
)

// WalletRepository stores wallet custody records and their access sets in
// Redis. Each grant is kept in two sets: wallet_access:<name> (usernames) and
// user_wallets:<username> (wallet names).
type WalletRepository struct {
	redis *redis.Client
}

func NewWalletRepository(redisClient *redis.Client) *WalletRepository {
	return &WalletRepository{redis: redisClient}
}

// Create stores the wallet if the name is free and grants its creator access
func (r *WalletRepository) Create(ctx context.Context, wallet *model.Wallet) error {
	created, err := r.redis.SetNXJSON(ctx, redis.WalletKey(wallet.Name), wallet)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyExists
	}
	return r.GrantAccess(ctx, wallet.Name, wallet.CreatedBy)
}

func (r *WalletRepository) Get(ctx context.Context, name string) (*model.Wallet, error) {
	var wallet model.Wallet
	if err := r.redis.GetJSON(ctx, redis.WalletKey(name), &wallet); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.redis.Exists(ctx, redis.WalletKey(name))
}

// Delete removes the wallet, its access set and every user's reference to it
func (r *WalletRepository) Delete(ctx context.Context, name string) error {
	users, err := r.redis.SMembers(ctx, redis.WalletAccessKey(name))
	if err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	for _, username := range users {
		pipe.SRem(ctx, redis.UserWalletsKey(username), name)
	}
	pipe.Del(ctx, redis.WalletKey(name), redis.WalletAccessKey(name))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *WalletRepository) GrantAccess(ctx context.Context, name, username string) error {
	pipe := r.redis.TxPipeline()
	pipe.SAdd(ctx, redis.WalletAccessKey(name), username)
	pipe.SAdd(ctx, redis.UserWalletsKey(username), name)
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAccess returns ErrNotFound when username had no access to the wallet
func (r *WalletRepository) RevokeAccess(ctx context.Context, name, username string) error {
	removed, err := r.redis.SRem(ctx, redis.WalletAccessKey(name), username)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	_, err = r.redis.SRem(ctx, redis.UserWalletsKey(username), name)
	return err
}

func (r *WalletRepository) HasAccess(ctx context.Context, name, username string) (bool, error) {
	return r.redis.SIsMember(ctx, redis.WalletAccessKey(name), username)
}

// ListForUser returns the wallets username can access, ordered by name.
// Names whose record has since disappeared are skipped.
func (r *WalletRepository) ListForUser(ctx context.Context, username string) ([]model.Wallet, error) {
	names, err := r.redis.SMembers(ctx, redis.UserWalletsKey(username))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	wallets := make([]model.Wallet, 0, len(names))
	for _, name := range names {
		wallet, err := r.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *wallet)
	}
	return wallets, nil
}
