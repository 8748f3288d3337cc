package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanzimsiamm/fiwippo-backend/internal/jwt"
	"github.com/tanzimsiamm/fiwippo-backend/internal/service"
)

const payloadKey = "authPayload"

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(token string) (jwt.Payload, error)
}

// Auth validates the Authorization header and attaches the token payload.
type Auth struct {
	Tokens Authenticator
}

// NewAuth creates the bearer-token middleware.
func NewAuth(tokens Authenticator) *Auth {
	return &Auth{Tokens: tokens}
}

// ValidateJWT ensures the request has a valid bearer access token.
func (m *Auth) ValidateJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		unauthorized(c, "invalid_token", "No token provided. Please login.")
		return
	}

	payload, err := m.Tokens.Authenticate(strings.TrimSpace(parts[1]))
	if err != nil {
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			unauthorized(c, string(svcErr.Kind), svcErr.Message)
			return
		}
		unauthorized(c, "invalid_token", "Invalid token")
		return
	}

	c.Set(payloadKey, payload)
	c.Next()
}

// GetPayload returns the payload stored by ValidateJWT.
func GetPayload(c *gin.Context) (jwt.Payload, bool) {
	value, ok := c.Get(payloadKey)
	if !ok {
		return jwt.Payload{}, false
	}
	payload, ok := value.(jwt.Payload)
	return payload, ok
}

func unauthorized(c *gin.Context, kind, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"error":   kind,
	})
}
