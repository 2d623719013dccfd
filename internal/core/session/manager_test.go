package session

import (
	"context"
	"os"
	"testing"
	"time"

	"recipe-chat-gateway/internal/infrastructure/config"
	"recipe-chat-gateway/internal/pkg/common"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func testManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	cfg := &config.Config{
		Session: config.SessionConfig{
			TTL:           ttl,
			CheckInterval: time.Minute,
			OutboxTTL:     time.Hour,
		},
	}
	return NewManager(cfg, store)
}

func TestManager_InitAndCurrent(t *testing.T) {
	m := testManager(t, 30*time.Minute)
	ctx := context.Background()

	err := m.Init(ctx, "s1", Session{UserID: "u1", Username: "alice", Token: "tok"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	sess, err := m.Current(ctx, "s1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if sess.UserID != "u1" || sess.Username != "alice" || sess.Token != "tok" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.LoginAt.IsZero() {
		t.Fatalf("login timestamp not set")
	}
}

func TestManager_CurrentUnknownSession(t *testing.T) {
	m := testManager(t, 30*time.Minute)

	if _, err := m.Current(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := m.Current(context.Background(), ""); err != ErrNotFound {
		t.Fatalf("empty session id: got %v, want ErrNotFound", err)
	}
}

func TestManager_ExpiredSessionIsTornDown(t *testing.T) {
	m := testManager(t, 30*time.Minute)
	ctx := context.Background()

	// 直接寫入過期的登入時間戳
	err := m.Init(ctx, "s1", Session{UserID: "u1", LoginAt: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := m.Current(ctx, "s1"); err != common.ErrSessionExpired {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}

	// 過期時會話被清除，第二次查詢直接查無資料
	if _, err := m.Current(ctx, "s1"); err != ErrNotFound {
		t.Fatalf("after teardown: got %v, want ErrNotFound", err)
	}
}

func TestManager_ResolveUserIDFallsBackToGuest(t *testing.T) {
	m := testManager(t, 30*time.Minute)
	ctx := context.Background()

	if got := m.ResolveUserID(ctx, "nobody"); got != common.GuestUserID {
		t.Fatalf("got %q, want %q", got, common.GuestUserID)
	}

	if err := m.Init(ctx, "s1", Session{UserID: "u1"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := m.ResolveUserID(ctx, "s1"); got != "u1" {
		t.Fatalf("got %q, want u1", got)
	}
}

func TestManager_TeardownClearsSession(t *testing.T) {
	m := testManager(t, 30*time.Minute)
	ctx := context.Background()

	if err := m.Init(ctx, "s1", Session{UserID: "u1"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := m.Teardown(ctx, "s1"); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if _, err := m.Current(ctx, "s1"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetDelConsumesOnce(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err := store.GetDel(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("first getdel: %q, %v", v, err)
	}
	if _, err := store.GetDel(ctx, "k"); err != ErrNotFound {
		t.Fatalf("second getdel: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ExpiredEntryIsGone(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("get after expiry: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetDel(ctx, "k"); err != ErrNotFound {
		t.Fatalf("getdel after expiry: got %v, want ErrNotFound", err)
	}
}
