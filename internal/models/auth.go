package models

import "github.com/golang-jwt/jwt/v5"

// UserRole distinguishes the two portal account types.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleFaculty UserRole = "FACULTY"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleFaculty
}

// JWTClaims are the custom claims embedded in access tokens.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for both roles.
type LoginRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role" validate:"required"`
}

// LoginResponse returns the issued token and basic identity.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	Name        string   `json:"name"`
}
