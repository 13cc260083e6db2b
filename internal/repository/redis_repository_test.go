package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestUserRepositoryCreateAndLookup(t *testing.T) {
	rc, _ := newTestRedis(t)
	repo := NewUserRepository(rc)
	ctx := context.Background()

	user := &model.User{ID: "u-1", Username: "alice", Role: model.RoleUser, Status: model.StatusActive}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &model.User{ID: "u-2", Username: "alice"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create err = %v", err)
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != "u-1" {
		t.Errorf("id = %q", got.ID)
	}
	if _, err := repo.GetByUsername(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastLogin(ctx, "u-1", at); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	got, _ = repo.GetByID(ctx, "u-1")
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("last login = %v", got.LastLoginAt)
	}
}

func TestUserRepositorySessions(t *testing.T) {
	rc, mr := newTestRedis(t)
	repo := NewUserRepository(rc)
	ctx := context.Background()

	for _, id := range []string{"s-1", "s-2"} {
		err := repo.CreateSession(ctx, &model.Session{ID: id, UserID: "u-1"}, time.Hour)
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	if ttl := mr.TTL(redis.SessionKey("s-1")); ttl <= 0 {
		t.Errorf("session ttl = %v, want positive", ttl)
	}

	if err := repo.DeleteSession(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := repo.GetSession(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session err = %v", err)
	}

	if err := repo.DeleteUserSessions(ctx, "u-1"); err != nil {
		t.Fatalf("DeleteUserSessions: %v", err)
	}
	if mr.Exists(redis.SessionKey("s-2")) || mr.Exists(redis.UserSessionsKey("u-1")) {
		t.Error("sessions left behind")
	}
}

func TestDeleteSessionByRefreshToken(t *testing.T) {
	rc, mr := newTestRedis(t)
	repo := NewUserRepository(rc)
	ctx := context.Background()

	sessions := []*model.Session{
		{ID: "s-1", UserID: "u-1", RefreshToken: "r-1"},
		{ID: "s-2", UserID: "u-1", RefreshToken: "r-2"},
		{ID: "s-old", UserID: "u-1", RefreshToken: "r-old"},
	}
	for _, s := range sessions {
		if err := repo.CreateSession(ctx, s, time.Hour); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	mr.Del(redis.SessionKey("s-old"))

	if err := repo.DeleteSessionByRefreshToken(ctx, "u-1", "r-2"); err != nil {
		t.Fatalf("DeleteSessionByRefreshToken: %v", err)
	}
	if mr.Exists(redis.SessionKey("s-2")) {
		t.Error("matching session not deleted")
	}
	if !mr.Exists(redis.SessionKey("s-1")) {
		t.Error("other session deleted")
	}
	members, err := mr.Members(redis.UserSessionsKey("u-1"))
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 || members[0] != "s-1" {
		t.Errorf("session set = %v, want [s-1]", members)
	}

	if err := repo.DeleteSessionByRefreshToken(ctx, "u-1", "unknown"); err != nil {
		t.Errorf("unknown token: %v", err)
	}
}

func TestUserRepositoryBlacklist(t *testing.T) {
	rc, mr := newTestRedis(t)
	repo := NewUserRepository(rc)
	ctx := context.Background()

	if err := repo.BlacklistToken(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}
	if ok, _ := repo.IsTokenBlacklisted(ctx, "tok"); !ok {
		t.Fatal("token should be blacklisted")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := repo.IsTokenBlacklisted(ctx, "tok"); ok {
		t.Error("blacklist entry should expire with the token")
	}

	if err := repo.BlacklistToken(ctx, "expired", -time.Second); err != nil {
		t.Fatalf("BlacklistToken expired: %v", err)
	}
	if ok, _ := repo.IsTokenBlacklisted(ctx, "expired"); ok {
		t.Error("already expired token should not be stored")
	}
}

func TestWalletRepositoryAccess(t *testing.T) {
	rc, _ := newTestRedis(t)
	repo := NewWalletRepository(rc)
	ctx := context.Background()

	w := &model.Wallet{Name: "main", Address: "0xabc", Network: model.NetworkEVM, CreatedBy: "alice"}
	if err := repo.Create(ctx, w); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, w); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create err = %v", err)
	}
	if err := repo.Create(ctx, &model.Wallet{Name: "aux", CreatedBy: "alice"}); err != nil {
		t.Fatalf("Create aux: %v", err)
	}

	if ok, _ := repo.HasAccess(ctx, "main", "alice"); !ok {
		t.Fatal("creator should have access")
	}
	if err := repo.GrantAccess(ctx, "main", "bob"); err != nil {
		t.Fatalf("GrantAccess: %v", err)
	}

	list, err := repo.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 2 || list[0].Name != "aux" || list[1].Name != "main" {
		t.Errorf("alice wallets = %+v", list)
	}

	if err := repo.RevokeAccess(ctx, "main", "carol"); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoke without access err = %v", err)
	}
	if err := repo.RevokeAccess(ctx, "main", "bob"); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}
	if list, _ := repo.ListForUser(ctx, "bob"); len(list) != 0 {
		t.Errorf("bob still lists %+v", list)
	}

	if err := repo.Delete(ctx, "main"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted wallet err = %v", err)
	}
	list, _ = repo.ListForUser(ctx, "alice")
	if len(list) != 1 || list[0].Name != "aux" {
		t.Errorf("alice wallets after delete = %+v", list)
	}
}

func TestEventPublisher(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()

	sub := rc.Subscribe(ctx, redis.ChannelPositionUpdate)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub := NewEventPublisher(rc)
	event := model.PositionEvent{Type: model.EventPositionOpened, PositionID: 7, BotName: "alpha"}
	if err := pub.PublishPosition(ctx, event); err != nil {
		t.Fatalf("PublishPosition: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got model.PositionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != model.EventPositionOpened || got.PositionID != 7 {
			t.Errorf("event = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
