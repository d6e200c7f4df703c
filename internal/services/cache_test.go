package services

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before ttl")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after ttl")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("zero ttl entry must persist")
	}
}
