package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/girishpw/discount-app/internal/middleware"
	"github.com/girishpw/discount-app/internal/models"
	"github.com/girishpw/discount-app/internal/service"
)

type fakePersonRepo struct {
	person *models.Person
	err    error
}

func (f *fakePersonRepo) FindActiveByEmail(ctx context.Context, email string) (*models.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.person, nil
}

func newTestAuthService(t *testing.T, person *models.Person) *service.AuthService {
	t.Helper()
	return service.NewAuthService(&fakePersonRepo{person: person}, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		Secret:        "test-secret",
		Expiration:    time.Hour,
		Issuer:        "discount-app",
		AllowedDomain: "pw.live",
	})
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	person := &models.Person{Email: "staff@pw.live", FullName: "Staff One", PasswordHash: string(hash), CanRequest: true, Active: true}
	handler := NewAuthHandler(newTestAuthService(t, person))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"staff@pw.live","password":"secret123"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "staff@pw.live", envelope.Data.Actor.Email)
}

func TestAuthHandlerLoginBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(newTestAuthService(t, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(newTestAuthService(t, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		Email:         "l1@pw.live",
		FullName:      "L1 One",
		ApproverLevel: models.LevelL1,
		BranchScope:   "Delhi",
	})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.ActorInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "l1@pw.live", envelope.Data.Email)
	assert.Equal(t, models.LevelL1, envelope.Data.ApproverLevel)
}

func TestAuthHandlerMeUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(newTestAuthService(t, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
