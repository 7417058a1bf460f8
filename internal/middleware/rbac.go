package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/response"
)

// RequireRoles only lets callers holding one of the roles through. It must
// run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Staff is the role set allowed to read marksheets and poll jobs.
var Staff = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff}
