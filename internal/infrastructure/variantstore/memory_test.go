package variantstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/utils/platformerrors"
)

func variant(id, originalID string) *conversation.Variant {
	return &conversation.Variant{
		PublicID:          id,
		OriginalMessageID: originalID,
		ProviderID:        "prov_x",
		Model:             "model-x-1",
		Content:           "alternate answer",
	}
}

func TestMemoryPool_AddAndList(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := pool.Add(ctx, variant(fmt.Sprintf("var_%016d", i), "msg_original")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	variants, err := pool.ListForMessage(ctx, "msg_original")
	if err != nil {
		t.Fatalf("ListForMessage() error = %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("ListForMessage() length = %d, want 3", len(variants))
	}
	for i, v := range variants {
		want := fmt.Sprintf("var_%016d", i)
		if v.PublicID != want {
			t.Errorf("insertion order broken at %d: got %q, want %q", i, v.PublicID, want)
		}
	}

	other, err := pool.ListForMessage(ctx, "msg_other")
	if err != nil {
		t.Fatalf("ListForMessage() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated message has %d variants, want 0", len(other))
	}
}

func TestMemoryPool_AddRejectsMissingOriginal(t *testing.T) {
	pool := NewMemoryPool()

	err := pool.Add(context.Background(), variant("var_0000000000000001", ""))
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("Add() error = %v, want validation error", err)
	}
}

func TestMemoryPool_FindByPublicID(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	if err := pool.Add(ctx, variant("var_0000000000000001", "msg_original")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	found, err := pool.FindByPublicID(ctx, "msg_original", "var_0000000000000001")
	if err != nil {
		t.Fatalf("FindByPublicID() error = %v", err)
	}
	if found.Content != "alternate answer" {
		t.Errorf("FindByPublicID() content = %q", found.Content)
	}

	_, err = pool.FindByPublicID(ctx, "msg_original", "var_missing")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("FindByPublicID() error = %v, want not found", err)
	}

	// A variant is only visible under its own message key.
	_, err = pool.FindByPublicID(ctx, "msg_other", "var_0000000000000001")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("FindByPublicID() across messages error = %v, want not found", err)
	}
}

func TestMemoryPool_DiscardForMessage(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := pool.Add(ctx, variant(fmt.Sprintf("var_%016d", i), "msg_original")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := pool.Add(ctx, variant("var_kept000000000000", "msg_other")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	removed, err := pool.DiscardForMessage(ctx, "msg_original")
	if err != nil {
		t.Fatalf("DiscardForMessage() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	removed, err = pool.DiscardForMessage(ctx, "msg_original")
	if err != nil {
		t.Fatalf("second DiscardForMessage() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("second discard removed = %d, want 0", removed)
	}

	kept, _ := pool.ListForMessage(ctx, "msg_other")
	if len(kept) != 1 {
		t.Errorf("unrelated message lost its variants: %d left, want 1", len(kept))
	}
}

func TestMemoryPool_ConcurrentAdds(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	const writers = 16
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("var_%04d%012d", w, i)
				if err := pool.Add(ctx, variant(id, "msg_original")); err != nil {
					t.Errorf("Add() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	variants, err := pool.ListForMessage(ctx, "msg_original")
	if err != nil {
		t.Fatalf("ListForMessage() error = %v", err)
	}
	if len(variants) != writers*perWriter {
		t.Errorf("pool size = %d, want %d", len(variants), writers*perWriter)
	}
}
