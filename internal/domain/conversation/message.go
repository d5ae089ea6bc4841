package conversation

import (
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one committed turn of a conversation. Sequence is strictly
// increasing across ALL messages of the conversation, active or not, so the
// append order is recoverable even after branching.
type Message struct {
	ID             uint        `json:"-"`
	PublicID       string      `json:"id"` // string ID like "msg_x7y2z5w8r3t6u9v1"
	ConversationID uint        `json:"-"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Sequence       int         `json:"sequence"`
	IsActive       bool        `json:"is_active"`
	IsError        bool        `json:"is_error"`

	// Provenance. Set on assistant messages only.
	ProviderID *string `json:"provider_id,omitempty"`
	Model      *string `json:"model,omitempty"`
	TokensIn   int     `json:"tokens_in,omitempty"`
	TokensOut  int     `json:"tokens_out,omitempty"`
	LatencyMs  int64   `json:"latency_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserMessage creates an active user turn.
func NewUserMessage(publicID string, conversationID uint, content string, sequence int) *Message {
	now := time.Now()
	return &Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		Sequence:       sequence,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewAssistantMessage creates an active assistant turn with provenance.
func NewAssistantMessage(publicID string, conversationID uint, content string, sequence int, providerID, model string) *Message {
	now := time.Now()
	return &Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        content,
		Sequence:       sequence,
		IsActive:       true,
		ProviderID:     &providerID,
		Model:          &model,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewErrorMessage creates an active assistant turn recording a failed
// generation. It participates in the visible thread but is excluded from
// model-facing history and cannot seed a rerun.
func NewErrorMessage(publicID string, conversationID uint, content string, sequence int, providerID, model string) *Message {
	msg := NewAssistantMessage(publicID, conversationID, content, sequence, providerID, model)
	msg.IsError = true
	return msg
}

// ProvenanceMatches reports whether the message was produced by the given
// provider and model pair.
func (m *Message) ProvenanceMatches(providerID, model string) bool {
	if m.ProviderID == nil || m.Model == nil {
		return false
	}
	return *m.ProviderID == providerID && *m.Model == model
}
