package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-erp-api/internal/middleware"
)

// actorID returns the user id of the authenticated caller, or "" on routes
// without JWT.
func actorID(c *gin.Context) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
