package blockcache

import (
	"context"
	"testing"
	"time"

	"github.com/zamorofthat/shieldcore/decision"
)

func TestMemoryGetMiss(t *testing.T) {
	c := NewMemory()
	_, ok, err := c.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss on empty cache")
	}
}

func TestMemorySetThenGet(t *testing.T) {
	c := NewMemory()
	reason := decision.NewShieldReason("blocked for testing")
	expires := time.Now().Unix() + 60

	if err := c.Set(context.Background(), "fp1", reason, expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := c.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got.Shield.Message != "blocked for testing" {
		t.Errorf("unexpected reason: %+v", got)
	}
}

func TestMemoryLazyEvictionOnExpiry(t *testing.T) {
	c := NewMemory()
	reason := decision.NewShieldReason("expired")
	past := time.Now().Unix() - 1

	c.Set(context.Background(), "fp1", reason, past)

	_, ok, _ := c.Get(context.Background(), "fp1")
	if ok {
		t.Error("expected entry to be evicted once expired")
	}

	c.mu.RLock()
	_, stillPresent := c.entries["fp1"]
	c.mu.RUnlock()
	if stillPresent {
		t.Error("expected entry removed from map after lazy eviction")
	}
}

func TestMemoryTTLNonNegative(t *testing.T) {
	c := NewMemory()
	reason := decision.NewShieldReason("x")
	c.Set(context.Background(), "fp1", reason, time.Now().Unix()+30)

	ttl, err := c.TTL(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl <= 0 || ttl > 30 {
		t.Errorf("expected ttl in (0, 30], got %d", ttl)
	}
}

func TestMemoryTTLMissingKeyIsZero(t *testing.T) {
	c := NewMemory()
	ttl, err := c.TTL(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 0 {
		t.Errorf("expected 0 ttl for missing key, got %d", ttl)
	}
}

func TestMemoryGetIdempotentWithoutIntervalSet(t *testing.T) {
	c := NewMemory()
	c.Set(context.Background(), "fp1", decision.NewShieldReason("x"), time.Now().Unix()+30)

	a, _, _ := c.Get(context.Background(), "fp1")
	b, _, _ := c.Get(context.Background(), "fp1")
	if a.Shield.Message != b.Shield.Message {
		t.Error("expected consecutive Get calls to return the same value")
	}
}
