package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/convkit/core"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get(k1) = %q, want v1", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_ = s.Set(ctx, "k1", []byte("v1"))
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Fatalf("Get after Delete = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := s.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("BatchGet returned %d keys, want 2", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet values = %q/%q", got["a"], got["b"])
	}
	if _, ok := got["c"]; ok {
		t.Error("BatchGet should skip missing keys")
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "expiring", []byte("v"), 1); err != nil {
		t.Fatalf("Set with ttl: %v", err)
	}
	if _, err := s.Get(ctx, "expiring"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "expiring"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Fatalf("Get after expiry = %v, want ErrStoreNotFound", err)
	}
}
