package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

// WalletService manages wallet custody records. Key material is sealed
// before it reaches Redis and only opened for the wallet's creator.
type WalletService struct {
	wallets *repository.WalletRepository
	users   *repository.UserRepository
	sealer  *crypto.Sealer
	clock   Clock
	log     *logger.Logger
}

func NewWalletService(
	wallets *repository.WalletRepository,
	users *repository.UserRepository,
	sealer *crypto.Sealer,
	clock Clock,
	log *logger.Logger,
) *WalletService {
	return &WalletService{
		wallets: wallets,
		users:   users,
		sealer:  sealer,
		clock:   clock,
		log:     log,
	}
}

// Create stores a wallet owned by creator, who is granted access to it
func (s *WalletService) Create(ctx context.Context, creator string, req *model.CreateWalletRequest) (*model.WalletSummary, error) {
	network := strings.ToLower(strings.TrimSpace(req.Network))
	if network == "" {
		network = model.NetworkEVM
	}

	address := strings.TrimSpace(req.Address)
	if network == model.NetworkEVM {
		if !common.IsHexAddress(address) {
			return nil, util.ErrValidation("address is not a valid EVM address")
		}
		address = common.HexToAddress(address).Hex()
	}
	if len(req.Keys) == 0 {
		return nil, util.ErrValidation("keys must not be empty")
	}

	plain, err := json.Marshal(req.Keys)
	if err != nil {
		return nil, util.ErrBadRequest("keys could not be encoded")
	}
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to encrypt wallet keys", err)
	}

	wallet := &model.Wallet{
		Name:          req.Name,
		Address:       address,
		Network:       network,
		EncryptedKeys: sealed,
		CreatedBy:     creator,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, util.ErrConflict("Wallet name already exists")
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to store wallet", err)
	}

	s.log.Infof("Wallet %s created by %s", wallet.Name, creator)
	summary := wallet.Summary()
	return &summary, nil
}

// owned loads a wallet and checks that caller created it
func (s *WalletService) owned(ctx context.Context, caller, name string) (*model.Wallet, error) {
	wallet, err := s.wallets.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrWalletNotFound()
		}
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to load wallet", err)
	}
	if wallet.CreatedBy != caller {
		return nil, util.ErrForbidden("Only the wallet owner can do this")
	}
	return wallet, nil
}

// Get returns the wallet with its keys decrypted
func (s *WalletService) Get(ctx context.Context, caller, name string) (*model.WalletDetail, error) {
	wallet, err := s.owned(ctx, caller, name)
	if err != nil {
		return nil, err
	}

	plain, err := s.sealer.Open(wallet.EncryptedKeys)
	if err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to decrypt wallet keys", err)
	}
	var keys map[string]string
	if err := json.Unmarshal(plain, &keys); err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to decode wallet keys", err)
	}

	return &model.WalletDetail{
		WalletSummary: wallet.Summary(),
		Keys:          keys,
	}, nil
}

func (s *WalletService) Delete(ctx context.Context, caller, name string) error {
	if _, err := s.owned(ctx, caller, name); err != nil {
		return err
	}
	if err := s.wallets.Delete(ctx, name); err != nil {
		return util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to delete wallet", err)
	}
	s.log.Infof("Wallet %s deleted by %s", name, caller)
	return nil
}

// GrantAccess lets another registered user reference the wallet
func (s *WalletService) GrantAccess(ctx context.Context, caller string, req *model.WalletAccessRequest) error {
	if _, err := s.owned(ctx, caller, req.WalletName); err != nil {
		return err
	}

	exists, err := s.users.Exists(ctx, req.Username)
	if err != nil {
		return util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to look up user", err)
	}
	if !exists {
		return util.ErrNotFound("User not found")
	}

	if err := s.wallets.GrantAccess(ctx, req.WalletName, req.Username); err != nil {
		return util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to grant access", err)
	}
	return nil
}

func (s *WalletService) RevokeAccess(ctx context.Context, caller, username, name string) error {
	if _, err := s.owned(ctx, caller, name); err != nil {
		return err
	}
	if username == caller {
		return util.ErrBadRequest("The owner's access cannot be revoked")
	}

	if err := s.wallets.RevokeAccess(ctx, name, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrNotFound("User has no access to this wallet")
		}
		return util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to revoke access", err)
	}
	return nil
}

// List returns the wallets caller can access
func (s *WalletService) List(ctx context.Context, caller string) ([]model.WalletSummary, error) {
	wallets, err := s.wallets.ListForUser(ctx, caller)
	if err != nil {
		return nil, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Failed to list wallets", err)
	}

	summaries := make([]model.WalletSummary, 0, len(wallets))
	for i := range wallets {
		summaries = append(summaries, wallets[i].Summary())
	}
	return summaries, nil
}
