package oidcauth

// Package oidcauth implements ports.AuthBackend against an OIDC provider
// using the resource owner password grant. Role and country membership are
// read from token claims selected by configurable JMESPath expressions.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// Config holds configuration for the OIDC auth backend.
type Config struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string

	// RolesClaim and CountriesClaim are JMESPath expressions evaluated
	// against the ID token claims.
	RolesClaim     string
	CountriesClaim string

	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// Backend implements ports.AuthBackend using OIDC password grant.
type Backend struct {
	config         *oauth2.Config
	oidcProvider   *gooidc.Provider
	verifier       *gooidc.IDTokenVerifier
	rolesClaim     string
	countriesClaim string

	mu    sync.Mutex
	token *oauth2.Token
	user  *domainsession.User
}

// NewBackend creates a new OIDC auth backend. It performs a single discovery
// fetch against the issuer derived from DiscoveryURL.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}
	if cfg.RolesClaim != "" {
		if _, err := jmespath.Compile(cfg.RolesClaim); err != nil {
			return nil, fmt.Errorf("compile roles claim expression: %w", err)
		}
	}
	if cfg.CountriesClaim != "" {
		if _, err := jmespath.Compile(cfg.CountriesClaim); err != nil {
			return nil, fmt.Errorf("compile countries claim expression: %w", err)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Backend{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint:     op.Endpoint(),
		},
		oidcProvider:   op,
		verifier:       op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		rolesClaim:     cfg.RolesClaim,
		countriesClaim: cfg.CountriesClaim,
	}, nil
}

// Login exchanges the operator credentials for a token and builds the
// normalized user from the verified ID token claims.
func (b *Backend) Login(ctx context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.InvalidCredentials("Login failed. Please check your credentials.")
	}

	token, err := b.config.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, mapTokenError(err)
	}

	user, err := b.userFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.token = token
	b.user = user
	b.mu.Unlock()

	return loginResult(token, user), nil
}

// Logout drops the local token. OIDC providers without a revocation
// endpoint keep the upstream session; the console session is gone either way.
func (b *Backend) Logout(context.Context) error {
	b.mu.Lock()
	b.token = nil
	b.user = nil
	b.mu.Unlock()
	return nil
}

// Me validates the current token against the provider's userinfo endpoint
// and returns the normalized user.
func (b *Backend) Me(ctx context.Context) (*domainsession.User, error) {
	b.mu.Lock()
	token := b.token
	cached := b.user
	b.mu.Unlock()

	if token == nil {
		return nil, apperrors.SessionExpired("Your session has expired. Please log in again.")
	}

	ui, err := b.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSessionExpired, "Your session has expired. Please log in again.")
	}

	var claims map[string]any
	if err := ui.Claims(&claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServerError, "decode user info")
	}

	user := b.userFromClaims(claims)
	// Userinfo responses may omit role claims that only ride the ID token.
	if cached != nil {
		if len(user.Roles) == 0 {
			user.Roles = cached.Roles
		}
		if len(user.AllowedCountries) == 0 {
			user.AllowedCountries = cached.AllowedCountries
			user.PrimaryCountry = cached.PrimaryCountry
		}
	}

	b.mu.Lock()
	b.user = user
	b.mu.Unlock()

	return user, nil
}

// Refresh redeems the refresh token for a new access token.
func (b *Backend) Refresh(ctx context.Context) (*ports.LoginResult, error) {
	b.mu.Lock()
	token := b.token
	b.mu.Unlock()

	if token == nil || token.RefreshToken == "" {
		return nil, apperrors.SessionExpired("Your session has expired. Please log in again.")
	}

	src := b.config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		return nil, mapTokenError(err)
	}

	user, err := b.userFromToken(ctx, fresh)
	if err != nil {
		b.mu.Lock()
		user = b.user
		b.mu.Unlock()
		if user == nil {
			return nil, err
		}
	}

	b.mu.Lock()
	b.token = fresh
	b.user = user
	b.mu.Unlock()

	return loginResult(fresh, user), nil
}

// Verify checks that the current token is still accepted by the provider.
func (b *Backend) Verify(ctx context.Context) error {
	_, err := b.Me(ctx)
	return err
}

// userFromToken verifies the ID token riding the oauth2 token and maps its
// claims. Tokens without an ID token fall back to the userinfo endpoint.
func (b *Backend) userFromToken(ctx context.Context, token *oauth2.Token) (*domainsession.User, error) {
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		ui, err := b.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeServerError, "fetch user info")
		}
		var claims map[string]any
		if err := ui.Claims(&claims); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeServerError, "decode user info")
		}
		return b.userFromClaims(claims), nil
	}

	idTok, err := b.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidCredentials, "verify id_token")
	}
	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServerError, "parse id_token claims")
	}
	return b.userFromClaims(claims), nil
}

// userFromClaims maps raw claims into the normalized user shape.
func (b *Backend) userFromClaims(claims map[string]any) *domainsession.User {
	u := &domainsession.User{
		Name:   stringClaim(claims, "name"),
		Email:  stringClaim(claims, "email"),
		Active: true,
	}
	if u.Name == "" {
		u.Name = stringClaim(claims, "preferred_username")
	}
	if id, ok := claims["user_id"].(float64); ok {
		u.ID = int64(id)
	}

	for _, role := range searchStrings(b.rolesClaim, claims) {
		u.Roles = append(u.Roles, domainsession.RoleRef{Name: role})
	}
	u.AllowedCountries = searchStrings(b.countriesClaim, claims)
	if len(u.AllowedCountries) > 0 {
		u.PrimaryCountry = u.AllowedCountries[0]
	}
	return u
}

// searchStrings evaluates a JMESPath expression and coerces the result to a
// string slice. A bare string result becomes a one-element slice.
func searchStrings(expr string, data any) []string {
	if expr == "" {
		return nil
	}
	result, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}
	switch v := result.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// mapTokenError converts oauth2 token endpoint failures into the sanitized
// error taxonomy.
func mapTokenError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		switch rErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Wrap(err, apperrors.ErrCodeInvalidCredentials, "Login failed. Please check your credentials.")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeServerError, "The authentication service returned an error.")
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnknown, "Could not reach the authentication service.")
}

func loginResult(token *oauth2.Token, user *domainsession.User) *ports.LoginResult {
	res := &ports.LoginResult{
		Token:     token.AccessToken,
		TokenType: token.TokenType,
		User:      user,
	}
	if !token.Expiry.IsZero() {
		res.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	return res
}

var _ ports.AuthBackend = (*Backend)(nil)
