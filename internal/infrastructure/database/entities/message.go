package entities

import (
	"time"

	"parley-server/chat-api/internal/domain/conversation"
)

// Message stores each committed turn of a conversation. Rows are append-only
// except for the IsActive flag, which branching flips to false.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string                   `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint                     `gorm:"index:idx_message_conversation_active;uniqueIndex:idx_message_conversation_sequence;not null"`
	Role           conversation.MessageRole `gorm:"type:varchar(20);not null"`
	Content        string                   `gorm:"type:text;not null"`
	Sequence       int                      `gorm:"uniqueIndex:idx_message_conversation_sequence;not null"`
	IsActive       bool                     `gorm:"index:idx_message_conversation_active;not null;default:true"`
	IsError        bool                     `gorm:"not null;default:false"`

	ProviderID *string `gorm:"type:varchar(64)"`
	Model      *string `gorm:"type:varchar(128)"`
	TokensIn   int     `gorm:"not null;default:0"`
	TokensOut  int     `gorm:"not null;default:0"`
	LatencyMs  int64   `gorm:"not null;default:0"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts database entity to domain model
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Sequence:       m.Sequence,
		IsActive:       m.IsActive,
		IsError:        m.IsError,
		ProviderID:     m.ProviderID,
		Model:          m.Model,
		TokensIn:       m.TokensIn,
		TokensOut:      m.TokensOut,
		LatencyMs:      m.LatencyMs,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Sequence:       m.Sequence,
		IsActive:       m.IsActive,
		IsError:        m.IsError,
		ProviderID:     m.ProviderID,
		Model:          m.Model,
		TokensIn:       m.TokensIn,
		TokensOut:      m.TokensOut,
		LatencyMs:      m.LatencyMs,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
