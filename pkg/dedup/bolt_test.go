package dedup

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func openTestBolt(t *testing.T, path string, clock *fakeClock) *BoltStore {
	t.Helper()
	store, err := OpenBolt(path, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	return store
}

func TestBoltStoreRegisterIfAbsent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	store := openTestBolt(t, filepath.Join(t.TempDir(), "dedup.db"), clock)
	defer store.Close()
	ctx := context.Background()

	got, err := store.RegisterIfAbsent(ctx, "https://a.com/x")
	if err != nil || got != domain.NewlyRegistered {
		t.Fatalf("first = %v, %v", got, err)
	}
	got, err = store.RegisterIfAbsent(ctx, "https://a.com/x")
	if err != nil || got != domain.AlreadyRegistered {
		t.Fatalf("second = %v, %v", got, err)
	}

	rec, ok, err := store.Lookup("https://a.com/x")
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	if !rec.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("created_at = %v", rec.CreatedAt)
	}
}

func TestBoltStoreExpiredRecordIsNewAgain(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	store := openTestBolt(t, filepath.Join(t.TempDir(), "dedup.db"), clock)
	defer store.Close()
	ctx := context.Background()

	if _, err := store.RegisterIfAbsent(ctx, "https://a.com/x"); err != nil {
		t.Fatalf("register: %v", err)
	}

	clock.Advance(DefaultRetention - time.Minute)
	if got, _ := store.RegisterIfAbsent(ctx, "https://a.com/x"); got != domain.AlreadyRegistered {
		t.Fatalf("inside retention = %v", got)
	}

	clock.Advance(2 * time.Minute)
	if got, _ := store.RegisterIfAbsent(ctx, "https://a.com/x"); got != domain.NewlyRegistered {
		t.Fatalf("after retention = %v", got)
	}
}

func TestBoltStoreSweepOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.db")
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}

	store := openTestBolt(t, path, clock)
	if _, err := store.RegisterIfAbsent(context.Background(), "https://a.com/old"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	clock.Advance(DefaultRetention + time.Hour)
	store = openTestBolt(t, path, clock)
	defer store.Close()

	_, ok, err := store.Lookup("https://a.com/old")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expired record should be gone after reopen")
	}
}

func TestBoltStoreCanceledContext(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := openTestBolt(t, filepath.Join(t.TempDir(), "dedup.db"), clock)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.RegisterIfAbsent(ctx, "https://a.com/x"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestOpenSelectsBolt(t *testing.T) {
	cfg := Config{Backend: "bolt", BoltPath: filepath.Join(t.TempDir(), "nested", "dedup.db")}
	store, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*BoltStore); !ok {
		t.Fatalf("Open returned %T", store)
	}
}
