package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/interfaces/httpserver/responses"
	"parley-server/chat-api/internal/utils/functional"
)

// ProviderHandler exposes the read-only provider catalog.
type ProviderHandler struct {
	catalog provider.Catalog
	log     zerolog.Logger
}

// NewProviderHandler constructs the handler.
func NewProviderHandler(catalog provider.Catalog, log zerolog.Logger) *ProviderHandler {
	return &ProviderHandler{
		catalog: catalog,
		log:     log.With().Str("handler", "provider").Logger(),
	}
}

// List handles GET /v1/providers
func (h *ProviderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, responses.ProviderListPayload{
		Data: functional.Map(h.catalog.Snapshot(), responses.FromProvider),
	})
}
