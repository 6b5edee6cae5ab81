package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/eventtria/internal/auth"
	"github.com/smallbiznis/eventtria/internal/authorization"
	obscontext "github.com/smallbiznis/eventtria/internal/observability/context"
	"github.com/smallbiznis/eventtria/internal/usercontext"
)

const contextIdentityKey = "identity"

// AuthRequired resolves the bearer token into an identity and stores the
// user id on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.authProvider.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), identity.UserID)
		ctx = obscontext.WithUserID(ctx, identity.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		actor := authorization.Actor{ID: identity.UserID, Role: string(identity.Role)}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func identityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		return auth.Identity{}, false
	}
	return identity, true
}

func (s *Server) userID(c *gin.Context) (string, bool) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return "", false
	}
	return identity.UserID, true
}

func pathUserID(c *gin.Context) (string, bool) {
	userID, ok := usercontext.Normalize(c.Param("userId"))
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return "", false
	}
	return userID, true
}
