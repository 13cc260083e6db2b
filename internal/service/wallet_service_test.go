package service

import (
	"context"
	"strings"
	"testing"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/crypto"
	"aegis/backend/pkg/logger"
)

const (
	testSealKey     = "0123456789abcdef0123456789abcdef"
	lowerAddress    = "0x52908400098527886e0f7030069857d2e4169ee7"
	checksumAddress = "0x52908400098527886E0F7030069857D2E4169EE7"
)

type walletFixture struct {
	svc     *WalletService
	wallets *repository.WalletRepository
	users   *repository.UserRepository
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()
	rc := newTestRedis(t)
	sealer, err := crypto.NewSealer(testSealKey)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	wallets := repository.NewWalletRepository(rc)
	users := repository.NewUserRepository(rc)
	return &walletFixture{
		svc:     NewWalletService(wallets, users, sealer, newFixedClock(testEpoch), logger.Nop()),
		wallets: wallets,
		users:   users,
	}
}

func walletReq(name string) *model.CreateWalletRequest {
	return &model.CreateWalletRequest{
		Name:    name,
		Address: lowerAddress,
		Keys:    map[string]string{"private_key": "deadbeef"},
	}
}

func TestWalletCreateSealsKeys(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	summary, err := f.svc.Create(ctx, "alice", walletReq("main"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if summary.Address != checksumAddress || summary.Network != model.NetworkEVM {
		t.Errorf("summary = %+v", summary)
	}

	stored, err := f.wallets.Get(ctx, "main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.EncryptedKeys == "" || strings.Contains(stored.EncryptedKeys, "deadbeef") {
		t.Errorf("keys stored in clear: %q", stored.EncryptedKeys)
	}

	detail, err := f.svc.Get(ctx, "alice", "main")
	if err != nil {
		t.Fatalf("Get detail: %v", err)
	}
	if detail.Keys["private_key"] != "deadbeef" {
		t.Errorf("keys = %v", detail.Keys)
	}

	_, err = f.svc.Create(ctx, "bob", walletReq("main"))
	wantCode(t, err, util.ErrCodeConflict)
}

func TestWalletCreateValidation(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	req := walletReq("main")
	req.Address = "not-an-address"
	_, err := f.svc.Create(ctx, "alice", req)
	wantCode(t, err, util.ErrCodeValidation)

	req = walletReq("main")
	req.Keys = nil
	_, err = f.svc.Create(ctx, "alice", req)
	wantCode(t, err, util.ErrCodeValidation)

	req = walletReq("sol")
	req.Network = "solana"
	req.Address = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	summary, err := f.svc.Create(ctx, "alice", req)
	if err != nil {
		t.Fatalf("non-evm wallet: %v", err)
	}
	if summary.Address != req.Address {
		t.Errorf("non-evm address rewritten to %s", summary.Address)
	}
}

func TestWalletOwnership(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	f.users.Create(ctx, &model.User{ID: "u-bob", Username: "bob", Status: model.StatusActive})

	if _, err := f.svc.Create(ctx, "alice", walletReq("main")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := f.svc.Get(ctx, "bob", "main")
	wantCode(t, err, util.ErrCodeForbidden)
	_, err = f.svc.Get(ctx, "alice", "ghost")
	wantCode(t, err, util.ErrCodeWalletNotFound)

	err = f.svc.GrantAccess(ctx, "alice", &model.WalletAccessRequest{Username: "carol", WalletName: "main"})
	wantCode(t, err, util.ErrCodeNotFound)
	err = f.svc.GrantAccess(ctx, "bob", &model.WalletAccessRequest{Username: "bob", WalletName: "main"})
	wantCode(t, err, util.ErrCodeForbidden)

	if err := f.svc.GrantAccess(ctx, "alice", &model.WalletAccessRequest{Username: "bob", WalletName: "main"}); err != nil {
		t.Fatalf("GrantAccess: %v", err)
	}
	list, _ := f.svc.List(ctx, "bob")
	if len(list) != 1 || list[0].Name != "main" {
		t.Errorf("bob wallets = %+v", list)
	}

	err = f.svc.RevokeAccess(ctx, "alice", "alice", "main")
	wantCode(t, err, util.ErrCodeBadRequest)
	if err := f.svc.RevokeAccess(ctx, "alice", "bob", "main"); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}
	err = f.svc.RevokeAccess(ctx, "alice", "bob", "main")
	wantCode(t, err, util.ErrCodeNotFound)

	err = f.svc.Delete(ctx, "bob", "main")
	wantCode(t, err, util.ErrCodeForbidden)
	if err := f.svc.Delete(ctx, "alice", "main"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := f.svc.List(ctx, "alice"); len(list) != 0 {
		t.Errorf("alice wallets after delete = %+v", list)
	}
}
