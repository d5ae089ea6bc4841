package handlers

import (
	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/domain/user"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat    *ChatHandler
	Variant *VariantHandler
	Catalog *ProviderHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	chatService conversation.Service,
	users user.Repository,
	catalog provider.Catalog,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:    NewChatHandler(chatService, users, log),
		Variant: NewVariantHandler(chatService, users, log),
		Catalog: NewProviderHandler(catalog, log),
	}
}
