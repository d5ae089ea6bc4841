package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/utils/functional"
	"parley-server/chat-api/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       domainErr.Message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// MessagePayload is the client view of one committed turn.
type MessagePayload struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Sequence  int     `json:"sequence"`
	IsActive  bool    `json:"is_active"`
	IsError   bool    `json:"is_error"`
	Provider  *string `json:"provider,omitempty"`
	Model     *string `json:"model,omitempty"`
	TokensIn  int     `json:"tokens_in,omitempty"`
	TokensOut int     `json:"tokens_out,omitempty"`
	LatencyMs int64   `json:"latency_ms,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// FromMessage maps a domain message to its payload.
func FromMessage(m *conversation.Message) MessagePayload {
	return MessagePayload{
		ID:        m.PublicID,
		Role:      string(m.Role),
		Content:   m.Content,
		Sequence:  m.Sequence,
		IsActive:  m.IsActive,
		IsError:   m.IsError,
		Provider:  m.ProviderID,
		Model:     m.Model,
		TokensIn:  m.TokensIn,
		TokensOut: m.TokensOut,
		LatencyMs: m.LatencyMs,
		CreatedAt: m.CreatedAt.Unix(),
	}
}

// ConversationPayload is the client view of a conversation.
type ConversationPayload struct {
	ID          string           `json:"id"`
	Title       *string          `json:"title,omitempty"`
	Status      string           `json:"status"`
	TotalTokens int              `json:"total_tokens"`
	Messages    []MessagePayload `json:"messages,omitempty"`
	CreatedAt   int64            `json:"created_at"`
	UpdatedAt   int64            `json:"updated_at"`
}

// FromConversation maps a domain conversation, messages included when loaded.
func FromConversation(c *conversation.Conversation) ConversationPayload {
	payload := ConversationPayload{
		ID:          c.PublicID,
		Title:       c.Title,
		Status:      string(c.Status),
		TotalTokens: c.TotalTokens,
		CreatedAt:   c.CreatedAt.Unix(),
		UpdatedAt:   c.UpdatedAt.Unix(),
	}
	if len(c.Messages) > 0 {
		payload.Messages = functional.Map(c.Messages, FromMessage)
	}
	return payload
}

// ConversationListPayload wraps a page of conversations.
type ConversationListPayload struct {
	Data     []ConversationPayload `json:"data"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Total    int64                 `json:"total"`
}

// TurnPayload is the result of one submitted turn.
type TurnPayload struct {
	Conversation     ConversationPayload `json:"conversation"`
	UserMessage      MessagePayload      `json:"user_message"`
	AssistantMessage MessagePayload      `json:"assistant_message"`
}

// FromTurnResult maps a completed turn.
func FromTurnResult(r *conversation.TurnResult) TurnPayload {
	return TurnPayload{
		Conversation:     FromConversation(r.Conversation),
		UserMessage:      FromMessage(r.UserMessage),
		AssistantMessage: FromMessage(r.AssistantMessage),
	}
}

// VariantPayload is the client view of one pending variant.
type VariantPayload struct {
	ID                string `json:"id"`
	OriginalMessageID string `json:"original_message_id"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	Content           string `json:"content"`
	TokensIn          int    `json:"tokens_in"`
	TokensOut         int    `json:"tokens_out"`
	LatencyMs         int64  `json:"latency_ms"`
	IsCanonical       bool   `json:"is_canonical"`
	ContextHash       string `json:"context_hash"`
	CreatedAt         int64  `json:"created_at"`
}

// FromVariant maps a domain variant.
func FromVariant(v *conversation.Variant) VariantPayload {
	return VariantPayload{
		ID:                v.PublicID,
		OriginalMessageID: v.OriginalMessageID,
		Provider:          v.ProviderID,
		Model:             v.Model,
		Content:           v.Content,
		TokensIn:          v.TokensIn,
		TokensOut:         v.TokensOut,
		LatencyMs:         v.LatencyMs,
		IsCanonical:       v.IsCanonical,
		ContextHash:       v.ContextHash,
		CreatedAt:         v.CreatedAt.Unix(),
	}
}

// VariantListPayload wraps the pending variants of one message.
type VariantListPayload struct {
	Data []VariantPayload `json:"data"`
}

// SelectionPayload reports a committed branch decision.
type SelectionPayload struct {
	NewMessage           MessagePayload `json:"new_message"`
	DeactivatedMessageID string         `json:"deactivated_message_id"`
}

// DiscardPayload reports how many variants were dropped.
type DiscardPayload struct {
	Discarded int `json:"discarded"`
}

// ProviderPayload is the client view of one catalog entry.
type ProviderPayload struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Kind         string   `json:"kind"`
	Available    bool     `json:"available"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model,omitempty"`
}

// FromProvider maps a catalog provider. Credentials never leave the server.
func FromProvider(p *provider.Provider) ProviderPayload {
	payload := ProviderPayload{
		ID:          p.PublicID,
		DisplayName: p.DisplayName,
		Kind:        string(p.Kind),
		Available:   p.Available,
		Models:      p.Models,
	}
	if model, ok := p.DefaultModel(); ok {
		payload.DefaultModel = model
	}
	return payload
}

// ProviderListPayload wraps the provider catalog.
type ProviderListPayload struct {
	Data []ProviderPayload `json:"data"`
}
