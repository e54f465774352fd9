package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// authEnvelope is the backend response shape for login and refresh.
type authEnvelope struct {
	Success     bool                `json:"success"`
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresIn   int64               `json:"expires_in"`
	User        *domainsession.User `json:"user"`
	Message     string              `json:"message,omitempty"`
}

// meEnvelope is the backend response shape for GET /auth/me.
type meEnvelope struct {
	Success bool                `json:"success"`
	User    *domainsession.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country,omitempty"`
}

// Login exchanges credentials for a token and user record. A 401 or 422 here
// means rejected credentials, not an expired session, so the refresh
// interception is disabled.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
	body := loginRequest{Email: creds.Email, Password: creds.Password, Country: creds.Country}
	raw, err := c.do(ctx, http.MethodPost, "/auth/login", body, callOptions{noRefresh: true})
	if err != nil {
		if apperrors.IsSessionExpired(err) || apperrors.IsInvalidInput(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidCredentials, "Login failed. Please check your credentials.")
		}
		return nil, err
	}

	result, err := decodeAuthEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if result.Token == "" || result.User == nil {
		return nil, apperrors.InvalidCredentials("Login failed. Please check your credentials.")
	}
	return result, nil
}

// Logout invalidates the backend session. Failures are returned but callers
// treat them as best-effort; local cleanup happens regardless.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, callOptions{noRefresh: true})
	return err
}

// Me fetches the current user. A 401 goes through the one-shot refresh.
func (c *Client) Me(ctx context.Context) (*domainsession.User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/auth/me", nil, callOptions{})
	if err != nil {
		return nil, err
	}

	var env meEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "The server returned an unexpected response.")
	}
	if !env.Success || env.User == nil {
		return nil, apperrors.Unknown("The server returned an unexpected response.")
	}
	return env.User, nil
}

// Refresh trades the current token for a fresh one and persists the new
// token and user to the store so an in-flight retry picks them up. Refresh
// never triggers its own refresh.
func (c *Client) Refresh(ctx context.Context) (*ports.LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, callOptions{noRefresh: true})
	if err != nil {
		return nil, err
	}

	result, err := decodeAuthEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, apperrors.Unknown("The server did not return a new token.")
	}

	if err := c.store.SetToken(ctx, result.Token); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not persist the refreshed session.")
	}
	if result.User != nil {
		if err := c.store.SetUser(ctx, result.User); err != nil {
			c.logger.WarnContext(ctx, "persist refreshed user failed", "error", err)
		}
	}
	return result, nil
}

// Verify checks that the current token is still accepted by the backend.
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/verify", nil, callOptions{})
	return err
}

func decodeAuthEnvelope(raw []byte) (*ports.LoginResult, error) {
	var env authEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "The server returned an unexpected response.")
	}
	if !env.Success {
		return nil, apperrors.InvalidCredentials("Login failed. Please check your credentials.")
	}
	return &ports.LoginResult{
		Token:     env.AccessToken,
		TokenType: env.TokenType,
		ExpiresIn: env.ExpiresIn,
		User:      env.User,
	}, nil
}
