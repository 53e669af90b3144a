package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
	"github.com/sakda-dev/behavior-track-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. The caller
// identity always comes from the JWT claims set by the JWT middleware.
func RequireRoles(roles ...models.TeacherRole) gin.HandlerFunc {
	allowed := make(map[models.TeacherRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
