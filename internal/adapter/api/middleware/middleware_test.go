package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/infrastructure/ratelimit"
	"disputedesk/pkg/errors"
)

type stubIdentity struct{}

func (stubIdentity) SignIn(ctx context.Context, email, password string) (*entity.Credentials, error) {
	return nil, errors.InvalidCredentials(nil)
}
func (stubIdentity) Refresh(ctx context.Context, refreshToken string) (*entity.Credentials, error) {
	return nil, errors.InvalidCredentials(nil)
}
func (stubIdentity) VerifyToken(ctx context.Context, idToken string) (string, error) {
	switch idToken {
	case "agent-token":
		return "agent-1", nil
	case "customer-token":
		return "cust-1", nil
	}
	return "", errors.Unauthorized("Invalid or expired token", nil)
}
func (stubIdentity) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	return "", nil
}
func (stubIdentity) RevokeSession(ctx context.Context, uid string) error { return nil }

type stubUsers map[string]*entity.SupportUser

func (s stubUsers) Create(ctx context.Context, user *entity.SupportUser) error { return nil }
func (s stubUsers) GetByID(ctx context.Context, uid string) (*entity.SupportUser, error) {
	if u, ok := s[uid]; ok {
		return u, nil
	}
	return nil, errors.NotFound("Support user", nil)
}
func (s stubUsers) IsInitialized(ctx context.Context) (bool, error) { return true, nil }
func (s stubUsers) MarkInitialized(ctx context.Context) error       { return nil }

func run(t *testing.T, authHeader string, chain ...echo.MiddlewareFunc) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	err := h(c)
	return c, err
}

func TestAuthenticateAndSupportOnly(t *testing.T) {
	auth := NewAuthMiddleware(stubIdentity{})
	support := NewSupportMiddleware(stubUsers{"agent-1": {UID: "agent-1", Role: entity.RoleSupport}})

	_, err := run(t, "", auth.Authenticate)
	assert.True(t, errors.Is(err, errors.CodeAuth))

	_, err = run(t, "Basic abc", auth.Authenticate)
	assert.True(t, errors.Is(err, errors.CodeAuth))

	_, err = run(t, "Bearer wrong", auth.Authenticate)
	assert.True(t, errors.Is(err, errors.CodeAuth))

	c, err := run(t, "Bearer agent-token", auth.Authenticate, support.SupportOnly)
	require.NoError(t, err)
	require.NotNil(t, CurrentUser(c))
	assert.Equal(t, "agent-1", CurrentUser(c).UID)

	_, err = run(t, "Bearer customer-token", auth.Authenticate, support.SupportOnly)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestOptionalAuth(t *testing.T) {
	auth := NewAuthMiddleware(stubIdentity{})
	support := NewSupportMiddleware(stubUsers{"agent-1": {UID: "agent-1", Role: entity.RoleSupport}})

	c, err := run(t, "", auth.OptionalAuth, support.LoadSupportUser)
	require.NoError(t, err)
	assert.Nil(t, CurrentUser(c))

	c, err = run(t, "Bearer wrong", auth.OptionalAuth, support.LoadSupportUser)
	require.NoError(t, err)
	assert.Nil(t, CurrentUser(c))

	c, err = run(t, "Bearer agent-token", auth.OptionalAuth, support.LoadSupportUser)
	require.NoError(t, err)
	assert.NotNil(t, CurrentUser(c))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewRateLimiter()
	limiter.SetPolicy(ratelimit.ActionLogin, ratelimit.Policy{Burst: 2, Interval: time.Minute})
	mw := RateLimit(limiter, ratelimit.ActionLogin)

	for i := 0; i < 2; i++ {
		_, err := run(t, "", mw)
		require.NoError(t, err)
	}
	c, err := run(t, "", mw)
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
	assert.NotEmpty(t, c.Response().Header().Get("Retry-After"))
}
