package usecase

import (
	"context"
	"strings"
	"time"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

type SessionUseCase struct {
	identity IdentityProvider
	users    repository.SupportUserRepository
	clock    func() time.Time
}

func NewSessionUseCase(identity IdentityProvider, users repository.SupportUserRepository) *SessionUseCase {
	return &SessionUseCase{
		identity: identity,
		users:    users,
		clock:    time.Now,
	}
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

type RegisterResult struct {
	User *entity.SupportUser `json:"user"`
	// Session is set only for self-registration during first-run setup.
	Session *entity.Session `json:"session,omitempty"`
}

// CurrentUser resolves an ID token to the signed-in support agent.
func (uc *SessionUseCase) CurrentUser(ctx context.Context, idToken string) (*entity.SupportUser, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, errors.Unauthorized("Not signed in", nil)
	}

	uid, err := uc.identity.VerifyToken(ctx, idToken)
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	return uc.supportUser(ctx, uid)
}

func (uc *SessionUseCase) supportUser(ctx context.Context, uid string) (*entity.SupportUser, error) {
	user, err := uc.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Forbidden("Account is not a support agent", nil)
		}
		return nil, err
	}
	if !user.IsSupport() {
		return nil, errors.Forbidden("Account is not a support agent", nil)
	}
	return user, nil
}

func (uc *SessionUseCase) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.InvalidCredentials(nil)
	}

	creds, err := uc.identity.SignIn(ctx, email, password)
	if err != nil {
		logger.Warn("Login failed for %s: %v", email, err)
		return nil, err
	}

	user, err := uc.supportUser(ctx, creds.UID)
	if err != nil {
		return nil, err
	}

	logger.Info("Support agent %s signed in", user.UID)
	return uc.newSession(user, creds), nil
}

func (uc *SessionUseCase) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.Unauthorized("Refresh token is required", nil)
	}

	creds, err := uc.identity.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, errors.CodeInvalidCredentials) {
			return nil, errors.Unauthorized("Session expired, sign in again", err)
		}
		return nil, err
	}

	user, err := uc.supportUser(ctx, creds.UID)
	if err != nil {
		return nil, err
	}
	return uc.newSession(user, creds), nil
}

// Logout revokes every refresh token of uid, so tokens issued so far stop
// verifying.
func (uc *SessionUseCase) Logout(ctx context.Context, uid string) error {
	if err := uc.identity.RevokeSession(ctx, uid); err != nil {
		return err
	}
	logger.Info("Support agent %s signed out", uid)
	return nil
}

// SetupRequired reports whether no support account has ever been registered.
func (uc *SessionUseCase) SetupRequired(ctx context.Context) (bool, error) {
	initialized, err := uc.users.IsInitialized(ctx)
	if err != nil {
		return false, err
	}
	return !initialized, nil
}

// Register creates a support account. Without a caller this is only allowed
// while first-run setup is pending; afterwards a signed-in agent must do it.
func (uc *SessionUseCase) Register(ctx context.Context, caller *entity.SupportUser, input RegisterInput) (*RegisterResult, error) {
	setup, err := uc.SetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !setup && !caller.IsSupport() {
		return nil, errors.Forbidden("Setup is complete; ask a support agent to create your account", nil)
	}

	email := strings.TrimSpace(input.Email)
	uid, err := uc.identity.CreateUser(ctx, email, input.Password, strings.TrimSpace(input.DisplayName))
	if err != nil {
		return nil, err
	}

	user := &entity.SupportUser{
		UID:         uid,
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        entity.RoleSupport,
		CreatedAt:   uc.clock(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if setup {
		if err := uc.users.MarkInitialized(ctx); err != nil {
			return nil, err
		}
		logger.Info("Initial setup completed by %s", uid)
	}

	result := &RegisterResult{User: user}
	if caller == nil {
		creds, err := uc.identity.SignIn(ctx, email, input.Password)
		if err != nil {
			// The account exists; the client can still sign in normally.
			logger.Warn("Registered %s but automatic sign-in failed: %v", uid, err)
			return result, nil
		}
		result.Session = uc.newSession(user, creds)
	}
	return result, nil
}

func (uc *SessionUseCase) newSession(user *entity.SupportUser, creds *entity.Credentials) *entity.Session {
	return &entity.Session{
		User:         user,
		IDToken:      creds.IDToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    uc.clock().Add(creds.ExpiresIn),
	}
}
