package conversation

import (
	"context"
	"strings"
	"time"
)

type ConversationStatus string

const (
	ConversationStatusActive  ConversationStatus = "active"
	ConversationStatusDeleted ConversationStatus = "deleted"
)

// maxTitleRunes bounds titles derived from the opening user message.
const maxTitleRunes = 48

// Conversation is the aggregate root for one chat thread. The visible thread
// is the ordered set of its active messages; superseded messages stay attached
// for audit but never re-enter the model-facing history.
type Conversation struct {
	ID          uint               `json:"-"`
	PublicID    string             `json:"id"` // string ID like "conv_a3f8d2k9p1m4n7q2"
	Title       *string            `json:"title,omitempty"`
	UserID      uint               `json:"-"`
	Status      ConversationStatus `json:"status"`
	TotalTokens int                `json:"total_tokens"`
	Messages    []*Message         `json:"messages,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ConversationFilter struct {
	ID       *uint
	PublicID *string
	UserID   *uint
	Status   *ConversationStatus
}

// Pagination holds page-based listing parameters.
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// Offset converts the page number to a row offset.
func (p *Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Repository persists conversations and their messages. Message mutations are
// only safe under the engine's per-conversation turn lock; the repository does
// not serialize writers itself.
type Repository interface {
	Create(ctx context.Context, conversation *Conversation) error
	FindByFilter(ctx context.Context, filter ConversationFilter, pagination *Pagination) ([]*Conversation, error)
	Count(ctx context.Context, filter ConversationFilter) (int64, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	Update(ctx context.Context, conversation *Conversation) error
	Delete(ctx context.Context, id uint) error

	// Message operations
	AppendMessage(ctx context.Context, message *Message) error
	FindMessageByPublicID(ctx context.Context, publicID string) (*Message, error)
	DeactivateMessage(ctx context.Context, messageID uint) error
	ActiveMessages(ctx context.Context, conversationID uint) ([]*Message, error)
	AllMessages(ctx context.Context, conversationID uint) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID uint) (int, error)
}

// NewConversation creates an active conversation owned by userID.
func NewConversation(publicID string, userID uint, title *string) *Conversation {
	now := time.Now()
	return &Conversation{
		PublicID:  publicID,
		Title:     title,
		UserID:    userID,
		Status:    ConversationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TitleFromText derives a conversation title from the opening user message:
// the leading words, truncated on a word boundary.
func TitleFromText(text string) *string {
	trimmed := strings.Join(strings.Fields(text), " ")
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= maxTitleRunes {
		return &trimmed
	}

	cut := string(runes[:maxTitleRunes])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	title := cut + "..."
	return &title
}

// IsOwnedBy reports whether the conversation belongs to userID.
func (c *Conversation) IsOwnedBy(userID uint) bool {
	return c.UserID == userID
}
