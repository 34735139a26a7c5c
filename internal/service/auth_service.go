package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type authPersonRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.Person, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret        string
	Expiration    time.Duration
	Issuer        string
	AllowedDomain string
}

// AuthService authenticates people against the authorized_persons table and
// issues access tokens carrying their capability set.
type AuthService struct {
	persons   authPersonRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(persons authPersonRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{persons: persons, audit: audit, validator: validate, logger: logger, config: config}
}

// Login verifies credentials and returns a signed token. Emails outside the
// organizational domain are rejected before any lookup.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if s.config.AllowedDomain != "" && !strings.HasSuffix(email, "@"+strings.ToLower(s.config.AllowedDomain)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("please use your @%s email address", s.config.AllowedDomain))
	}

	person, err := s.persons.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch person")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, expiresAt, err := s.generateAccessToken(person)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.recordAudit(ctx, &models.AuditLog{
		ActorEmail: person.Email,
		Action:     models.AuditActionLogin,
		Payload:    types.JSONText(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		IssuedAt:    time.Now().UTC(),
		Actor: models.ActorInfo{
			Email:         person.Email,
			FullName:      person.FullName,
			BranchScope:   person.BranchScope,
			ApproverLevel: person.ApproverLevel,
			CanRequest:    person.CanRequest,
		},
	}, nil
}

// Logout records the logout; token invalidation is client-side discard.
func (s *AuthService) Logout(ctx context.Context, actor *models.JWTClaims, ip, userAgent string) {
	s.recordAudit(ctx, &models.AuditLog{
		ActorEmail: actor.Email,
		Action:     models.AuditActionLogout,
		Payload:    types.JSONText(`{"status":"logout"}`),
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(person *models.Person) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		Email:         person.Email,
		FullName:      person.FullName,
		BranchScope:   person.BranchScope,
		ApproverLevel: person.ApproverLevel,
		CanRequest:    person.CanRequest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   person.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) recordAudit(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
