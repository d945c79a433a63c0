package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()

	if _, err := store.Get(ctx, "ob:cart:v2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := store.Set(ctx, "ob:cart:v2", `{"version":2}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	val, err := store.Get(ctx, "ob:cart:v2")
	if err != nil || val != `{"version":2}` {
		t.Fatalf("unexpected get result: %q %v", val, err)
	}

	if err := store.Del(ctx, "ob:cart:v2", "ob:order:last"); err != nil {
		t.Fatalf("unexpected del error: %v", err)
	}
	if _, err := store.Get(ctx, "ob:cart:v2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected key to be deleted, got %v", err)
	}
}

func TestBuildKey(t *testing.T) {
	t.Parallel()

	if got := BuildKey("ob", "cart", "v2"); got != "ob:cart:v2" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := BuildKey("ob", "", "order:last"); got != "ob:order:last" {
		t.Fatalf("empty parts should be skipped, got %q", got)
	}
}
