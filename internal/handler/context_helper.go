package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/middleware"
	"github.com/grama-voice/grama-voice-api/internal/models"
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

// actorFromContext converts verified claims into the principal core calls
// expect. A zero actor means the request is unauthenticated.
func actorFromContext(c *gin.Context) models.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}
	}
	return claims.Actor()
}
