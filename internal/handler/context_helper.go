package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/csl-management-api/internal/middleware"
	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/middleware/requestid"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: requestid.Value(c),
	}
}
