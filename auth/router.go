package auth

import (
	"errors"
	"log"
	"net/http"

	"wedding/models"

	"github.com/gin-gonic/gin"
)

// HandlerFunc is called with an authenticated user that has the required permissions
type HandlerFunc func(c *gin.Context, user *models.User)

// InviteHandlerFunc is called with the contact the invitation token in the URL belongs to
type InviteHandlerFunc func(c *gin.Context, contact *models.Contact)

// Router is a wrapper class that adds auth checks + User pre-loading
type Router struct {
	Base *gin.Engine
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, required []models.Permission) {
	session := LoadSession(c)
	user := session.User()
	if user.ID == 0 || !user.HasPermissions(required) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (cr *Router) inviteExec(c *gin.Context, handler InviteHandlerFunc) {
	contact, err := models.ContactByToken(c.Param("token"))
	if err != nil {
		if !errors.Is(err, models.ErrInvalidToken) {
			log.Printf("Invitation lookup error: %v", err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrInvalidToken.Error()})
		return
	}
	handler(c, &contact)
}

func (cr *Router) POST(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) GET(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) PUT(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.PUT(path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

// Invite registers a public route whose path contains a :token parameter
func (cr *Router) Invite(method, path string, handler InviteHandlerFunc) {
	cr.Base.Handle(method, path, func(c *gin.Context) {
		cr.inviteExec(c, handler)
	})
}
