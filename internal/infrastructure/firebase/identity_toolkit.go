package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"disputedesk/internal/domain/entity"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

// ErrInvalidCredentials is wrapped by the error returned for a rejected
// email/password pair.
var ErrInvalidCredentials = stderrors.New("invalid credentials")

type identityToolkit struct {
	apiKey         string
	identityURL    string
	secureTokenURL string
	http           *http.Client
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var credentialErrors = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"INVALID_EMAIL":             true,
	"MISSING_PASSWORD":          true,
	"USER_DISABLED":             true,
	"INVALID_REFRESH_TOKEN":     true,
	"TOKEN_EXPIRED":             true,
	"USER_NOT_FOUND":            true,
	"MISSING_REFRESH_TOKEN":     true,
}

func (c *identityToolkit) signInWithPassword(ctx context.Context, email, password string) (*entity.Credentials, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, errors.Internal("Failed to encode sign-in request", err)
	}

	endpoint := fmt.Sprintf("%s/accounts:signInWithPassword?key=%s", strings.TrimRight(c.identityURL, "/"), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Internal("Failed to create sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp signInResponse
	if err := c.do(req, "sign in", &resp); err != nil {
		return nil, err
	}

	return &entity.Credentials{
		UID:          resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiresIn(resp.ExpiresIn),
	}, nil
}

func (c *identityToolkit) refresh(ctx context.Context, refreshToken string) (*entity.Credentials, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", strings.TrimRight(c.secureTokenURL, "/"), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Internal("Failed to create refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := c.do(req, "refresh session", &resp); err != nil {
		return nil, err
	}

	return &entity.Credentials{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiresIn(resp.ExpiresIn),
	}, nil
}

func (c *identityToolkit) do(req *http.Request, operation string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Network(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network(operation, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		// Messages may carry a suffix, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ..."
		code := strings.TrimSpace(strings.SplitN(apiErr.Error.Message, ":", 2)[0])
		if credentialErrors[code] {
			return errors.InvalidCredentials(fmt.Errorf("%w: %s", ErrInvalidCredentials, code))
		}
		logger.Warn("Identity Toolkit %s failed: status=%d body=%s", operation, resp.StatusCode, string(body))
		if strings.HasPrefix(code, "TOO_MANY_ATTEMPTS") {
			return errors.TooManyRequests("Too many sign-in attempts, try again later")
		}
		return errors.Network(operation, fmt.Errorf("identity toolkit returned %d: %s", resp.StatusCode, code))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Network(operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func parseExpiresIn(raw string) time.Duration {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return time.Hour
	}
	return time.Duration(seconds) * time.Second
}
