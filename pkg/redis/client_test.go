package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "pick:user-1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected first request allowed with count 1, got allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].key != "pf:rate_limit:pick:user-1" {
		t.Fatalf("expected expire for first increment, got %+v", mock.expireCalls)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "pick:user-1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "pick:user-1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestCartSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.CartKey("user-1")

	if err := client.Set(ctx, key, `[{"id":"Jollibee-Chickenjoy"}]`, 7*24*time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.ttls[key] != 7*24*time.Hour {
		t.Fatalf("expected 7 day ttl, got %v", mock.ttls[key])
	}
	if _, err := client.Get(ctx, key); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	if err := client.Publish(context.Background(), RecordsChannel, "orders/u1/o1"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := mock.published[RecordsChannel]; len(got) != 1 || got[0] != "orders/u1/o1" {
		t.Fatalf("unexpected published messages %v", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.Subscribe(context.Background(), RecordsChannel); err == nil {
		t.Fatal("expected subscribe error without raw client")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := []struct{ got, want string }{
		{client.IdempotencyKey("scope", "id"), "pf:idempotency:scope:id"},
		{client.IdempotencyKey("scope", ""), "pf:idempotency:scope"},
		{client.RateLimitKey("scope"), "pf:rate_limit:scope"},
		{client.AccessSessionKey("jti"), "pf:session:access:jti"},
		{client.CartKey("user-1"), "pf:cart:user-1"},
		{client.CheckoutDraftKey("user-1"), "pf:checkout:draft:user-1"},
		{client.InFlightKey(" user-1 "), "pf:checkout:inflight:user-1"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("unexpected key %s want %s", tc.got, tc.want)
		}
	}
	if RecordsChannel != "pf:records:changes" {
		t.Fatalf("unexpected channel %s", RecordsChannel)
	}
}

type mockCmdable struct {
	data        map[string]string
	ttls        map[string]time.Duration
	incr        map[string]int64
	published   map[string][]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		ttls:      make(map[string]time.Duration),
		incr:      make(map[string]int64),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}
