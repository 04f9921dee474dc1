package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			response.Unauthorized(c, "sign in required")
			c.Abort()
			return
		}
		if _, ok := allowed[sess.Role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
