package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"disputedesk/internal/usecase"
	"disputedesk/pkg/errors"
)

const (
	ContextUID  = "uid"
	ContextUser = "user"
)

type AuthMiddleware struct {
	identity usecase.IdentityProvider
}

func NewAuthMiddleware(identity usecase.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{
		identity: identity,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, bool) {
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "" {
			return errors.Unauthorized("Authorization header is required", nil)
		}
		token, ok := BearerToken(c)
		if !ok {
			return errors.Unauthorized("Invalid authorization format", nil)
		}

		uid, err := m.identity.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(ContextUID, uid)
		return next(c)
	}
}

// OptionalAuth sets the uid when a valid token is present and otherwise lets
// the request through anonymously.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := BearerToken(c)
		if !ok {
			return next(c)
		}
		if uid, err := m.identity.VerifyToken(c.Request().Context(), token); err == nil {
			c.Set(ContextUID, uid)
		}
		return next(c)
	}
}
