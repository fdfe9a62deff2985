package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salespipe/internal/authz"
)

// RequireRoles gates a route group to the listed roles.
func RequireRoles(allowed ...authz.Role) gin.HandlerFunc {
	allowedSet := map[authz.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no actor in context"})
			return
		}
		if _, ok := allowedSet[actor.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
