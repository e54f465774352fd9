package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/vitrinnea/admin-console/config"
	"github.com/vitrinnea/admin-console/internal/adapters/devauth"
	"github.com/vitrinnea/admin-console/internal/adapters/oidcauth"
	redisadapter "github.com/vitrinnea/admin-console/internal/adapters/redis"
	"github.com/vitrinnea/admin-console/internal/gateway"
	"github.com/vitrinnea/admin-console/internal/ports"
	"github.com/vitrinnea/admin-console/internal/service"
)

// SessionsConfig contains dependencies for the session manager.
type SessionsConfig struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Audit       ports.AuditRecorder
	Logger      *slog.Logger
}

// BuildSessionManager wires the per-browser-session controller registry for
// the configured auth mode.
func BuildSessionManager(cfg SessionsConfig) (*service.SessionManager, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if cfg.RedisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	appCfg := cfg.Config
	newStore := func(sid string) ports.SessionStore {
		return redisadapter.NewSessionStoreWithOptions(
			cfg.RedisClient, sid,
			appCfg.Session.KeyPrefix, appCfg.Session.StoreTTL,
		)
	}

	newBackend, err := backendFactory(appCfg, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		NewStore:   newStore,
		NewBackend: newBackend,
		Audit:      cfg.Audit,
		Logger:     cfg.Logger,
		IdleTTL:    appCfg.Session.IdleTTL,
	})
}

// backendFactory returns the per-session AuthBackend constructor for the
// configured auth mode.
func backendFactory(appCfg *config.AppConfig, logger *slog.Logger) (func(ports.SessionStore) (ports.AuthBackend, error), error) {
	switch appCfg.Auth.Mode {
	case config.AuthModePassword:
		if appCfg.Backend.BaseURL == "" {
			return nil, fmt.Errorf("auth mode password requires BACKEND_BASE_URL")
		}
		httpClient := &http.Client{Timeout: appCfg.Backend.Timeout}
		baseURL := appCfg.Backend.BaseURL
		return func(store ports.SessionStore) (ports.AuthBackend, error) {
			return gateway.NewClient(gateway.Options{
				BaseURL:    baseURL,
				Store:      store,
				HTTPClient: httpClient,
				Logger:     logger,
			})
		}, nil

	case config.AuthModeOIDC:
		oidcCfg := appCfg.Auth.OIDC
		if oidcCfg.DiscoveryURL == "" || oidcCfg.ClientID == "" || oidcCfg.ClientSecret == "" {
			return nil, fmt.Errorf("auth mode oidc requires discovery URL, client ID, and client secret")
		}
		return func(ports.SessionStore) (ports.AuthBackend, error) {
			return oidcauth.NewBackend(oidcauth.Config{
				ClientID:       oidcCfg.ClientID,
				ClientSecret:   oidcCfg.ClientSecret,
				Scope:          oidcCfg.Scope,
				DiscoveryURL:   oidcCfg.DiscoveryURL,
				RolesClaim:     oidcCfg.RolesClaim,
				CountriesClaim: oidcCfg.CountriesClaim,
			})
		}, nil

	case config.AuthModeMock:
		dev := appCfg.Auth.DevAuth
		return func(ports.SessionStore) (ports.AuthBackend, error) {
			return devauth.NewBackend(devauth.Config{
				Email:     dev.Email,
				Name:      dev.Name,
				Roles:     dev.Roles,
				Countries: dev.Countries,
			})
		}, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", appCfg.Auth.Mode)
	}
}
