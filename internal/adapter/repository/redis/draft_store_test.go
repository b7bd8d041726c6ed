package redis

import (
	"context"
	"testing"
)

func TestDraftStoreSaveAndLoad(t *testing.T) {
	client, mr := newTestRedisClient(t)

	store := NewDraftStore(client, "main")
	ctx := context.Background()

	if err := store.Save(ctx, "abc", "Expenses:Food"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(ctx, "def", "Expenses:Rent"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(ctx, "abc", "Expenses:Groceries"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	drafts, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(drafts) != 2 || drafts["abc"] != "Expenses:Groceries" || drafts["def"] != "Expenses:Rent" {
		t.Fatalf("unexpected drafts %v", drafts)
	}

	if got := mr.HGet("beancount-staging:drafts:main", "def"); got != "Expenses:Rent" {
		t.Fatalf("expected draft in hash, got %q", got)
	}
}

func TestDraftStoreDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)

	store := NewDraftStore(client, "main")
	ctx := context.Background()

	seedDrafts(t, store, "Expenses:Food", "a", "b", "c")

	if err := store.Delete(ctx, "a", "c", "missing"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("empty delete failed: %v", err)
	}

	drafts, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(drafts) != 1 || drafts["b"] == "" {
		t.Fatalf("expected only b, got %v", drafts)
	}
}

func TestDraftStoreNamespaces(t *testing.T) {
	client, _ := newTestRedisClient(t)

	seedDrafts(t, NewDraftStore(client, "one"), "Expenses:Food", "x")

	drafts, err := NewDraftStore(client, "two").Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("namespaces leaked: %v", drafts)
	}
}
