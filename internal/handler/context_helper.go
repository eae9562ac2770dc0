package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pay-equity-api/internal/middleware"
	"github.com/noah-isme/pay-equity-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// reportID is the trimmed :id path parameter.
func reportID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
