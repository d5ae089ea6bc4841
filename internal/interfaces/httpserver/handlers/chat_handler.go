package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/infrastructure/metrics"
	"parley-server/chat-api/internal/interfaces/httpserver/requests"
	"parley-server/chat-api/internal/interfaces/httpserver/responses"
	"parley-server/chat-api/internal/utils/functional"
)

// ChatHandler exposes turn submission and conversation reads.
type ChatHandler struct {
	service conversation.Service
	users   user.Repository
	log     zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service conversation.Service, users user.Repository, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		users:   users,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// SubmitTurn handles POST /v1/chat/turns
func (h *ChatHandler) SubmitTurn(c *gin.Context) {
	var req requests.SubmitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	result, err := h.service.SubmitTurn(c.Request.Context(), conversation.SubmitTurnInput{
		UserID:         caller.ID,
		ConversationID: req.ConversationID,
		Text:           req.Text,
		ProviderID:     req.Provider,
		Model:          req.Model,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to submit turn")
		return
	}

	outcome := "success"
	if result.AssistantMessage.IsError {
		outcome = "error_turn"
	}
	metrics.RecordTurn(req.Provider, outcome, result.AssistantMessage.TokensIn, result.AssistantMessage.TokensOut)

	c.JSON(http.StatusOK, responses.FromTurnResult(result))
}

// List handles GET /v1/conversations
func (h *ChatHandler) List(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	pagination := &conversation.Pagination{
		Page:     parsePositiveInt(c.Query("page"), 1),
		PageSize: parsePositiveInt(c.Query("page_size"), 20),
	}

	conversations, total, err := h.service.ListConversations(c.Request.Context(), caller.ID, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	c.JSON(http.StatusOK, responses.ConversationListPayload{
		Data:     functional.Map(conversations, responses.FromConversation),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		Total:    total,
	})
}

// Get handles GET /v1/conversations/:conversation_id
// The active thread is returned by default; include_inactive=true adds the
// deactivated messages of every branch.
func (h *ChatHandler) Get(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	includeInactive := c.Query("include_inactive") == "true"
	conv, err := h.service.GetConversation(c.Request.Context(), caller.ID, c.Param("conversation_id"), includeInactive)
	if err != nil {
		responses.HandleError(c, err, "failed to fetch conversation")
		return
	}

	c.JSON(http.StatusOK, responses.FromConversation(conv))
}

// Delete handles DELETE /v1/conversations/:conversation_id
func (h *ChatHandler) Delete(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), caller.ID, c.Param("conversation_id")); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
