package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/models"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
)

// AuthConfig defines configuration for access tokens. Identities are issued
// by the state portal; this service only verifies them and mints tokens for
// operators.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// TokenIdentity describes the subject of an operator token.
type TokenIdentity struct {
	UserID         string
	Role           models.UserRole
	Email          string
	FullName       string
	JurisdictionID string
}

// AuthService issues and validates access tokens.
type AuthService struct {
	logger *zap.Logger
	config AuthConfig
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{logger: logger, config: config, now: time.Now}
}

// GenerateToken signs an access token for the identity.
func (s *AuthService) GenerateToken(identity TokenIdentity) (string, time.Time, error) {
	switch identity.Role {
	case models.RoleAdmin, models.RoleReviewer:
	case models.RoleJurisdiction:
		if strings.TrimSpace(identity.JurisdictionID) == "" {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "jurisdiction tokens require a jurisdiction id")
		}
	default:
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", identity.Role))
	}
	if identity.UserID == "" {
		identity.UserID = uuid.NewString()
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:         identity.UserID,
		Role:           identity.Role,
		Email:          identity.Email,
		FullName:       identity.FullName,
		JurisdictionID: identity.JurisdictionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role == models.RoleJurisdiction && claims.JurisdictionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "jurisdiction token missing jurisdiction id")
	}
	return claims, nil
}
