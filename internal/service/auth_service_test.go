package service

import (
	"context"
	"testing"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/jwt"
	"aegis/backend/pkg/logger"
)

func newAuthFixture(t *testing.T) (*AuthService, *repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(newTestRedis(t))
	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, manager, newFixedClock(testEpoch), logger.Nop()), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != model.RoleUser || !user.CreatedAt.Equal(testEpoch) {
		t.Errorf("user = %+v", user)
	}

	_, err = svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "another one"})
	wantCode(t, err, util.ErrCodeConflict)

	_, err = svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wrong password"}, "ua", "127.0.0.1")
	wantCode(t, err, util.ErrCodeInvalidCredentials)
	_, err = svc.Login(ctx, &model.LoginRequest{Username: "nobody", Password: "whatever1"}, "ua", "127.0.0.1")
	wantCode(t, err, util.ErrCodeInvalidCredentials)

	auth, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "correct horse"}, "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if auth.AccessToken == "" || auth.RefreshToken == "" || auth.ExpiresIn != 900 {
		t.Errorf("auth response = %+v", auth)
	}

	stored, _ := users.GetByUsername(ctx, "alice")
	if stored.LastLoginAt == nil || !stored.LastLoginAt.Equal(testEpoch) {
		t.Errorf("last login = %v", stored.LastLoginAt)
	}

	validated, err := svc.ValidateToken(ctx, auth.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if validated.Username != "alice" {
		t.Errorf("validated user = %s", validated.Username)
	}

	_, err = svc.ValidateToken(ctx, auth.RefreshToken)
	wantCode(t, err, util.ErrCodeTokenInvalid)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "correct horse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	auth, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "correct horse"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, auth.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken != auth.RefreshToken {
		t.Errorf("refreshed = %+v", refreshed)
	}

	_, err = svc.RefreshToken(ctx, auth.AccessToken)
	wantCode(t, err, util.ErrCodeTokenInvalid)

	if err := svc.Logout(ctx, auth.AccessToken, auth.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = svc.ValidateToken(ctx, auth.AccessToken)
	wantCode(t, err, util.ErrCodeTokenInvalid)
	_, err = svc.RefreshToken(ctx, auth.RefreshToken)
	wantCode(t, err, util.ErrCodeTokenInvalid)

	// the refreshed access token was never blacklisted
	if _, err := svc.ValidateToken(ctx, refreshed.AccessToken); err != nil {
		t.Errorf("independent access token rejected: %v", err)
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{Username: "alice", Password: "correct horse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	stored, _ := users.GetByUsername(ctx, "alice")
	stored.Status = model.StatusInactive
	users.Update(ctx, stored)

	_, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "correct horse"}, "", "")
	wantCode(t, err, util.ErrCodeForbidden)

	me, err := svc.GetUserByID(ctx, stored.ID)
	if err != nil || me.Status != model.StatusInactive {
		t.Errorf("GetUserByID = %+v, %v", me, err)
	}
	_, err = svc.GetUserByID(ctx, "missing")
	wantCode(t, err, util.ErrCodeNotFound)
}
