package firebase

import (
	"context"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"

	"disputedesk/internal/domain/entity"
	"disputedesk/pkg/errors"
)

// FirebaseAuthClient combines the Admin SDK, used for token verification and
// account management, with the Identity Toolkit REST API, which is the only
// way to verify a password server side.
type FirebaseAuthClient struct {
	client *auth.Client
	rest   *identityToolkit
}

type Options struct {
	APIKey             string
	IdentityToolkitURL string
	SecureTokenURL     string
	HTTPClient         *http.Client
}

func NewFirebaseAuthClient(client *auth.Client, opts Options) *FirebaseAuthClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &FirebaseAuthClient{
		client: client,
		rest: &identityToolkit{
			apiKey:         opts.APIKey,
			identityURL:    opts.IdentityToolkitURL,
			secureTokenURL: opts.SecureTokenURL,
			http:           httpClient,
		},
	}
}

func (f *FirebaseAuthClient) SignIn(ctx context.Context, email, password string) (*entity.Credentials, error) {
	return f.rest.signInWithPassword(ctx, email, password)
}

func (f *FirebaseAuthClient) Refresh(ctx context.Context, refreshToken string) (*entity.Credentials, error) {
	return f.rest.refresh(ctx, refreshToken)
}

// VerifyToken also rejects tokens issued before the user's last sign-out.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenRevoked(err) {
			return "", errors.Unauthorized("Session has been signed out", err)
		}
		if auth.IsUserDisabled(err) {
			return "", errors.Unauthorized("Account is disabled", err)
		}
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return token.UID, nil
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", errors.BadRequest("Email is already registered", err)
		}
		return "", errors.Network("create account", err)
	}
	return user.UID, nil
}

// RevokeSession invalidates every refresh token of uid. ID tokens already
// issued stop verifying because VerifyToken checks revocation.
func (f *FirebaseAuthClient) RevokeSession(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return errors.Network("sign out", err)
	}
	return nil
}
