package variantstore

import (
	"context"
	"fmt"
	"sync"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/utils/platformerrors"
)

// MemoryPool is an in-process variant pool. Variants are transient by
// contract: they only exist between a rerun and the branching decision, so
// they are never persisted and do not survive a restart.
type MemoryPool struct {
	mu        sync.RWMutex
	byMessage map[string][]*conversation.Variant
}

// NewMemoryPool creates an empty variant pool.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{byMessage: make(map[string][]*conversation.Variant)}
}

var _ conversation.VariantPool = (*MemoryPool)(nil)

// Add stores a variant under its original message's public ID. Content
// duplicates are allowed; provenance filtering happens before generation.
func (p *MemoryPool) Add(ctx context.Context, variant *conversation.Variant) error {
	if variant.OriginalMessageID == "" {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeValidation,
			"variant has no original message ID",
			nil,
			"variant-add-no-original",
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.byMessage[variant.OriginalMessageID] = append(p.byMessage[variant.OriginalMessageID], variant)
	return nil
}

// FindByPublicID looks up one pending variant for a message.
func (p *MemoryPool) FindByPublicID(ctx context.Context, originalMessageID, variantID string) (*conversation.Variant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, v := range p.byMessage[originalMessageID] {
		if v.PublicID == variantID {
			return v, nil
		}
	}
	return nil, platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("variant not found: %s", variantID),
		nil,
		"variant-find-not-found",
	)
}

// ListForMessage returns the pending variants for a message in insertion
// order. The returned slice is a copy; callers cannot mutate the pool.
func (p *MemoryPool) ListForMessage(ctx context.Context, originalMessageID string) ([]*conversation.Variant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*conversation.Variant(nil), p.byMessage[originalMessageID]...), nil
}

// DiscardForMessage drops every pending variant for a message and reports how
// many were removed. Discarding an empty set is a no-op.
func (p *MemoryPool) DiscardForMessage(ctx context.Context, originalMessageID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := len(p.byMessage[originalMessageID])
	delete(p.byMessage, originalMessageID)
	return removed, nil
}
