package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestJSONHelpers(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	type wallet struct {
		Name string `json:"name"`
	}

	ok, err := c.SetNXJSON(ctx, WalletKey("main"), wallet{Name: "main"})
	if err != nil || !ok {
		t.Fatalf("SetNXJSON first write = %v, %v", ok, err)
	}
	ok, err = c.SetNXJSON(ctx, WalletKey("main"), wallet{Name: "other"})
	if err != nil || ok {
		t.Fatalf("SetNXJSON second write = %v, %v; want false", ok, err)
	}

	var got wallet
	if err := c.GetJSON(ctx, WalletKey("main"), &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Name != "main" {
		t.Errorf("stored wallet = %+v", got)
	}

	if err := c.GetJSON(ctx, WalletKey("missing"), &got); err != Nil {
		t.Errorf("missing key err = %v, want Nil", err)
	}
}

func TestIncrWindowExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	key := RateLimitKey("1.2.3.4", "login")

	for i := int64(1); i <= 3; i++ {
		n, err := c.IncrWindow(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("IncrWindow: %v", err)
		}
		if n != i {
			t.Fatalf("count = %d, want %d", n, i)
		}
	}

	mr.FastForward(time.Minute + time.Second)

	n, err := c.IncrWindow(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("IncrWindow after window: %v", err)
	}
	if n != 1 {
		t.Errorf("count after window = %d, want 1", n)
	}
}

func TestPublishJSONDelivers(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	sub := c.Subscribe(ctx, ChannelPositionUpdate)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := c.PublishJSON(ctx, ChannelPositionUpdate, map[string]int{"position_id": 7}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		if msg.Payload != `{"position_id":7}` {
			t.Errorf("payload = %s", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
