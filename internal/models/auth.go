package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a person.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and actor info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Actor       ActorInfo `json:"actor"`
}

// ActorInfo describes the authenticated person in responses.
type ActorInfo struct {
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	BranchScope   string        `json:"branch_scope"`
	ApproverLevel ApproverLevel `json:"approver_level"`
	CanRequest    bool          `json:"can_request_discount"`
}

// JWTClaims is the access-token payload. It carries the full capability set
// so that handlers can thread an explicit actor into services instead of
// re-reading ambient session state.
type JWTClaims struct {
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	BranchScope   string        `json:"branch_scope"`
	ApproverLevel ApproverLevel `json:"approver_level"`
	CanRequest    bool          `json:"can_request_discount"`
	jwt.RegisteredClaims
}

// Actor converts claims into the response shape.
func (c *JWTClaims) Actor() ActorInfo {
	return ActorInfo{
		Email:         c.Email,
		FullName:      c.FullName,
		BranchScope:   c.BranchScope,
		ApproverLevel: c.ApproverLevel,
		CanRequest:    c.CanRequest,
	}
}
