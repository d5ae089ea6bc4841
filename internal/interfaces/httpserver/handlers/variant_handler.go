package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/infrastructure/metrics"
	"parley-server/chat-api/internal/interfaces/httpserver/requests"
	"parley-server/chat-api/internal/interfaces/httpserver/responses"
	"parley-server/chat-api/internal/utils/functional"
)

// VariantHandler exposes rerun, review, and branching operations.
type VariantHandler struct {
	service conversation.Service
	users   user.Repository
	log     zerolog.Logger
}

// NewVariantHandler constructs the handler.
func NewVariantHandler(service conversation.Service, users user.Repository, log zerolog.Logger) *VariantHandler {
	return &VariantHandler{
		service: service,
		users:   users,
		log:     log.With().Str("handler", "variant").Logger(),
	}
}

// Rerun handles POST /v1/messages/:message_id/variants
func (h *VariantHandler) Rerun(c *gin.Context) {
	var req requests.RerunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	variant, err := h.service.Rerun(c.Request.Context(), conversation.RerunInput{
		UserID:            caller.ID,
		OriginalMessageID: c.Param("message_id"),
		ProviderID:        req.Provider,
		Model:             req.Model,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to generate variant")
		return
	}

	metrics.RecordVariantEvent("generated")
	c.JSON(http.StatusCreated, responses.FromVariant(variant))
}

// List handles GET /v1/messages/:message_id/variants
func (h *VariantHandler) List(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	variants, err := h.service.GetVariants(c.Request.Context(), caller.ID, c.Param("message_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list variants")
		return
	}

	c.JSON(http.StatusOK, responses.VariantListPayload{
		Data: functional.Map(variants, responses.FromVariant),
	})
}

// Select handles POST /v1/messages/:message_id/variants/:variant_id/select
func (h *VariantHandler) Select(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	result, err := h.service.SelectVariant(c.Request.Context(), conversation.SelectVariantInput{
		UserID:            caller.ID,
		OriginalMessageID: c.Param("message_id"),
		VariantID:         c.Param("variant_id"),
	})
	if err != nil {
		responses.HandleError(c, err, "failed to select variant")
		return
	}

	metrics.RecordVariantEvent("selected")
	c.JSON(http.StatusOK, responses.SelectionPayload{
		NewMessage:           responses.FromMessage(result.NewMessage),
		DeactivatedMessageID: result.DeactivatedMessage.PublicID,
	})
}

// Discard handles DELETE /v1/messages/:message_id/variants
func (h *VariantHandler) Discard(c *gin.Context) {
	caller, err := resolveUser(c, h.users)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	discarded, err := h.service.DiscardVariants(c.Request.Context(), caller.ID, c.Param("message_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to discard variants")
		return
	}

	metrics.RecordVariantEvent("discarded")
	c.JSON(http.StatusOK, responses.DiscardPayload{Discarded: discarded})
}
