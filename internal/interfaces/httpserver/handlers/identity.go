package handlers

import (
	"github.com/gin-gonic/gin"

	"parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/infrastructure/auth"
)

// resolveUser maps the request's auth subject to an internal user. Requests
// without a subject share the guest user.
func resolveUser(c *gin.Context, users user.Repository) (*user.User, error) {
	subject := c.GetString(auth.SubjectKey)
	if subject == "" {
		subject = user.GuestSubject
	}
	return users.ResolveSubject(c.Request.Context(), subject)
}
