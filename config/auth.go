package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword authenticates against the upstream admin API with
	// email and password credentials.
	AuthModePassword AuthMode = "password"
	// AuthModeOIDC uses OIDC for authentication.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oidc, mock)", v)
	}
}

// OIDCConfig contains OIDC configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"admin-console"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// RolesClaim is a JMESPath expression selecting role names from the
	// ID token claims (e.g. "realm_access.roles").
	RolesClaim string `env:"ROLES_CLAIM" envDefault:"roles"`
	// CountriesClaim is a JMESPath expression selecting the ISO country
	// codes the operator may act on.
	CountriesClaim string `env:"COUNTRIES_CLAIM" envDefault:"countries"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Email     string   `env:"EMAIL"     envDefault:"dev@vitrinnea.com"`
	Name      string   `env:"NAME"      envDefault:"Dev Operator"`
	Roles     []string `env:"ROLES"     envDefault:"super_admin"  envSeparator:";"`
	Countries []string `env:"COUNTRIES" envDefault:"SV;GT"        envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
