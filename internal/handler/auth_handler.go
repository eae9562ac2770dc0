package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
	"github.com/noah-isme/pay-equity-api/pkg/response"
)

// AuthHandler exposes the identity behind the presented token.
type AuthHandler struct{}

// NewAuthHandler creates a new handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type identityResponse struct {
	UserID         string `json:"userId"`
	Role           string `json:"role"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	JurisdictionID string `json:"jurisdictionId,omitempty"`
	ExpiresAt      int64  `json:"expiresAt,omitempty"`
}

// Me godoc
// @Summary Current token identity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resp := identityResponse{
		UserID:         claims.UserID,
		Role:           string(claims.Role),
		Email:          claims.Email,
		FullName:       claims.FullName,
		JurisdictionID: claims.JurisdictionID,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
