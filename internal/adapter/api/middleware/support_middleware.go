package middleware

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
)

type SupportMiddleware struct {
	users repository.SupportUserRepository
}

func NewSupportMiddleware(users repository.SupportUserRepository) *SupportMiddleware {
	return &SupportMiddleware{
		users: users,
	}
}

// SupportOnly requires the authenticated uid to have a support profile and
// makes that profile available through CurrentUser.
func (m *SupportMiddleware) SupportOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get(ContextUID).(string)
		if !ok || uid == "" {
			return errors.Unauthorized("Authentication required", nil)
		}

		user, err := m.users.GetByID(c.Request().Context(), uid)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return errors.Forbidden("Support privileges required", nil)
			}
			return err
		}
		if !user.IsSupport() {
			return errors.Forbidden("Support privileges required", nil)
		}

		c.Set(ContextUser, user)
		return next(c)
	}
}

// LoadSupportUser is SupportOnly for optional-auth routes: anonymous requests
// pass through untouched.
func (m *SupportMiddleware) LoadSupportUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get(ContextUID).(string)
		if !ok || uid == "" {
			return next(c)
		}
		if user, err := m.users.GetByID(c.Request().Context(), uid); err == nil && user.IsSupport() {
			c.Set(ContextUser, user)
		}
		return next(c)
	}
}

func CurrentUser(c echo.Context) *entity.SupportUser {
	user, _ := c.Get(ContextUser).(*entity.SupportUser)
	return user
}
