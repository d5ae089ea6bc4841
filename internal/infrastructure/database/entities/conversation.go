package entities

import (
	"time"

	"parley-server/chat-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID    string                          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Title       *string                         `gorm:"type:varchar(256)"`
	UserID      uint                            `gorm:"index:idx_conversation_user_status;not null"`
	Status      conversation.ConversationStatus `gorm:"type:varchar(20);index:idx_conversation_user_status;not null;default:'active'"`
	TotalTokens int                             `gorm:"not null;default:0"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:          c.ID,
		PublicID:    c.PublicID,
		Title:       c.Title,
		UserID:      c.UserID,
		Status:      c.Status,
		TotalTokens: c.TotalTokens,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:          c.ID,
		PublicID:    c.PublicID,
		Title:       c.Title,
		UserID:      c.UserID,
		Status:      c.Status,
		TotalTokens: c.TotalTokens,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
