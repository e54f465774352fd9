package config

import (
	"strings"
	"time"
)

// BackendConfig contains connection settings for the upstream admin API
// the console proxies authentication and directory calls to.
type BackendConfig struct {
	// BaseURL is the root of the admin API (e.g. "https://api.vitrinnea.com/api/v1").
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000/api/v1"`

	// Timeout bounds every outbound request to the admin API.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}
	if b.Timeout > 5*time.Minute {
		b.Timeout = 5 * time.Minute
	}
}
