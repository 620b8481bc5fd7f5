package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/danuarta/hr-promotion-api/internal/middleware"
	"github.com/danuarta/hr-promotion-api/internal/models"
)

// claimsFromContext returns the claims the JWT middleware stored for the
// request, or nil on routes reached without authentication.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	if value, ok := c.Get(middleware.ContextUserKey); ok {
		claims, _ := value.(*models.JWTClaims)
		return claims
	}
	return nil
}
