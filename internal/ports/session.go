package ports

// Package ports defines interfaces (hexagonal ports) for session and backend
// behavior. Implementations live in internal/adapters and internal/gateway;
// orchestration in internal/service.

import (
	"context"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
)

// SessionStore persists the three durable session entries: access token,
// cached user record, and selected country. The three are one unit for
// Clear purposes. Side effects are confined to the storage medium; no
// network calls.
//
// Absence is expressed in-band: an empty token string or a nil user means
// the entry is absent. Errors are reserved for storage failures.
type SessionStore interface {
	// GetToken returns the stored access token, or "" when absent.
	// Empty or whitespace-only stored values are treated as absent.
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error

	// GetUser returns the cached user record, or nil when absent. Stored
	// JSON is parsed defensively: malformed content or a record missing its
	// identity field is treated as absent and the entry is purged.
	GetUser(ctx context.Context) (*domainsession.User, error)
	SetUser(ctx context.Context, user *domainsession.User) error

	GetCountry(ctx context.Context) (string, error)
	SetCountry(ctx context.Context, code string) error

	// Clear removes token, user, and country together.
	Clear(ctx context.Context) error
}

// Credentials carries the login inputs for the backend.
type Credentials struct {
	Email    string
	Password string
	Country  string
}

// LoginResult is the outcome of a successful login or refresh.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresIn int64
	User      *domainsession.User
}

// AuthBackend is the remote authentication surface the console fronts.
// Implementations attach the stored bearer token to every request and
// perform at most one refresh-then-retry on an authorization failure.
type AuthBackend interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	// Logout invalidates the backend session. Callers treat failures as
	// best-effort and clear local state regardless.
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domainsession.User, error)
	Refresh(ctx context.Context) (*LoginResult, error)
	Verify(ctx context.Context) error
}
