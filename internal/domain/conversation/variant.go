package conversation

import (
	"context"
	"time"
)

// Variant is a candidate replacement for one committed assistant message.
// Variants are transient: they live outside the message thread until one is
// selected, and the whole set for a message is discarded together.
type Variant struct {
	PublicID          string    `json:"id"` // string ID like "var_p1m4n7q2a3f8d2k9"
	OriginalMessageID string    `json:"original_message_id"`
	ProviderID        string    `json:"provider_id"`
	Model             string    `json:"model"`
	Content           string    `json:"content"`
	TokensIn          int       `json:"tokens_in"`
	TokensOut         int       `json:"tokens_out"`
	LatencyMs         int64     `json:"latency_ms"`
	IsCanonical       bool      `json:"is_canonical"`
	ContextHash       string    `json:"context_hash"`
	CreatedAt         time.Time `json:"created_at"`
}

// VariantPool stores pending variants keyed by the original message's public
// ID. Implementations must be safe for concurrent use.
type VariantPool interface {
	Add(ctx context.Context, variant *Variant) error
	FindByPublicID(ctx context.Context, originalMessageID, variantID string) (*Variant, error)
	ListForMessage(ctx context.Context, originalMessageID string) ([]*Variant, error)
	DiscardForMessage(ctx context.Context, originalMessageID string) (int, error)
}
