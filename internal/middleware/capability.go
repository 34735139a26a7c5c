package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
	"github.com/girishpw/discount-app/pkg/response"
)

// RequireApprover allows only token holders carrying an approver level. The
// services re-check against the live person row; this gate just keeps plainly
// unauthorized traffic off the approval routes.
func RequireApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := mustClaims(c)
		if claims == nil {
			return
		}
		if claims.ApproverLevel != models.LevelL1 && claims.ApproverLevel != models.LevelL2 {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRequester allows only token holders with submission capability.
func RequireRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := mustClaims(c)
		if claims == nil {
			return
		}
		if !claims.CanRequest {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func mustClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return nil
	}
	return claims
}
