package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/girishpw/discount-app/internal/models"
)

func runGate(t *testing.T, gate gin.HandlerFunc, claims *models.JWTClaims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	gate(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return rec
}

func TestRequireApprover(t *testing.T) {
	rec := runGate(t, RequireApprover(), &models.JWTClaims{ApproverLevel: models.LevelL1})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runGate(t, RequireApprover(), &models.JWTClaims{ApproverLevel: models.LevelNone})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runGate(t, RequireApprover(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRequester(t *testing.T) {
	rec := runGate(t, RequireRequester(), &models.JWTClaims{CanRequest: true})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runGate(t, RequireRequester(), &models.JWTClaims{CanRequest: false})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
