package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RoleReviewer     UserRole = "REVIEWER"
	RoleJurisdiction UserRole = "JURISDICTION"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID         string   `json:"user_id"`
	Role           UserRole `json:"role"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	JurisdictionID string   `json:"jurisdiction_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the reviewer identity recorded on approvals and history.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	for _, candidate := range []string{c.FullName, c.Email, c.UserID} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}
