package devauth

// Package devauth provides a simple, config-driven AuthBackend for local
// development. It accepts any password and serves a fixed operator identity
// without reaching an upstream API.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

const tokenLifetimeSeconds = 8 * 60 * 60

// Config controls the dev auth backend identity.
type Config struct {
	Email     string
	Name      string
	Roles     []string
	Countries []string
}

// Backend implements ports.AuthBackend for local development.
type Backend struct {
	user domainsession.User

	mu    sync.Mutex
	token string
}

// NewBackend constructs a dev auth backend from Config.
func NewBackend(cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	name := cfg.Name
	if name == "" {
		name = "Dev Operator"
	}
	countries := append([]string(nil), cfg.Countries...)
	if len(countries) == 0 {
		countries = []string{"SV"}
	}
	roles := make([]domainsession.RoleRef, 0, len(cfg.Roles))
	for _, r := range cfg.Roles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, domainsession.RoleRef{Name: r})
		}
	}
	return &Backend{
		user: domainsession.User{
			ID:               1,
			Name:             name,
			Email:            cfg.Email,
			PrimaryCountry:   countries[0],
			AllowedCountries: countries,
			Roles:            roles,
			Active:           true,
		},
	}, nil
}

// Login accepts any non-empty password and mints a fresh local token.
func (b *Backend) Login(_ context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
	if creds.Password == "" {
		return nil, apperrors.InvalidCredentials("Login failed. Please check your credentials.")
	}
	token, err := randomString(32)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate token")
	}

	b.mu.Lock()
	b.token = token
	b.mu.Unlock()

	return &ports.LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: tokenLifetimeSeconds,
		User:      b.currentUser(),
	}, nil
}

// Logout drops the local token.
func (b *Backend) Logout(context.Context) error {
	b.mu.Lock()
	b.token = ""
	b.mu.Unlock()
	return nil
}

// Me returns the configured identity. The dev backend treats any restored
// token as valid.
func (b *Backend) Me(context.Context) (*domainsession.User, error) {
	return b.currentUser(), nil
}

// Refresh mints a replacement token for the same identity.
func (b *Backend) Refresh(ctx context.Context) (*ports.LoginResult, error) {
	token, err := randomString(32)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate token")
	}

	b.mu.Lock()
	b.token = token
	b.mu.Unlock()

	return &ports.LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: tokenLifetimeSeconds,
		User:      b.currentUser(),
	}, nil
}

// Verify always succeeds.
func (b *Backend) Verify(context.Context) error { return nil }

// currentUser returns a copy so callers cannot mutate the shared identity.
func (b *Backend) currentUser() *domainsession.User {
	u := b.user
	u.AllowedCountries = append([]string(nil), b.user.AllowedCountries...)
	u.Roles = append([]domainsession.RoleRef(nil), b.user.Roles...)
	return &u
}

// randomString generates a cryptographically secure URL-safe random string
// of exact length.
func randomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

var _ ports.AuthBackend = (*Backend)(nil)
