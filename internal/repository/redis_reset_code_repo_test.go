package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisResetCodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisResetCodeStore(client), mr
}

// TestRedisResetCodeStore_SetAndGet は保存と取得の往復を検証する。
func TestRedisResetCodeStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "code-1", "alice@example.com", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	email, err := store.Get(ctx, "code-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("email = %q, want %q", email, "alice@example.com")
	}
}

// TestRedisResetCodeStore_Get_Unknown は未登録コードで空文字が返ることを検証する。
func TestRedisResetCodeStore_Get_Unknown(t *testing.T) {
	store, _ := newTestStore(t)

	email, err := store.Get(context.Background(), "no-such-code")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if email != "" {
		t.Errorf("email = %q, want empty", email)
	}
}

// TestRedisResetCodeStore_Expiry はTTL経過後にコードが失効することを検証する。
func TestRedisResetCodeStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "code-1", "alice@example.com", 10*time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	mr.FastForward(11 * time.Minute)

	email, err := store.Get(ctx, "code-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if email != "" {
		t.Errorf("expected expired code, got email %q", email)
	}
}

// TestRedisResetCodeStore_Delete は削除後に取得できないことを検証する。
func TestRedisResetCodeStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "code-1", "alice@example.com", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Delete(ctx, "code-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	email, err := store.Get(ctx, "code-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if email != "" {
		t.Errorf("expected deleted code, got email %q", email)
	}

	// 存在しないコードの削除もエラーにしない
	if err := store.Delete(ctx, "code-1"); err != nil {
		t.Errorf("Delete of missing code returned error: %v", err)
	}
}

// TestRedisResetCodeStore_KeyPrefix はキーに接頭辞が付くことを検証する。
func TestRedisResetCodeStore_KeyPrefix(t *testing.T) {
	store, mr := newTestStore(t)

	if err := store.Set(context.Background(), "code-1", "alice@example.com", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !mr.Exists("pwdreset:code-1") {
		t.Error("expected key pwdreset:code-1 to exist")
	}
}
