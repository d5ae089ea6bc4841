package v1

import (
	"github.com/gin-gonic/gin"

	"parley-server/chat-api/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	router.POST("/chat/turns", handler.SubmitTurn)
	router.GET("/conversations", handler.List)
	router.GET("/conversations/:conversation_id", handler.Get)
	router.DELETE("/conversations/:conversation_id", handler.Delete)
}

func registerVariantRoutes(router gin.IRoutes, handler *handlers.VariantHandler) {
	router.POST("/messages/:message_id/variants", handler.Rerun)
	router.GET("/messages/:message_id/variants", handler.List)
	router.DELETE("/messages/:message_id/variants", handler.Discard)
	router.POST("/messages/:message_id/variants/:variant_id/select", handler.Select)
}

func registerProviderRoutes(router gin.IRoutes, handler *handlers.ProviderHandler) {
	router.GET("/providers", handler.List)
}
