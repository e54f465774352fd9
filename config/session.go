package config

import "time"

// SessionConfig contains session store and lifecycle configuration.
type SessionConfig struct {
	// StoreTTL is how long persisted session keys survive in Redis
	// without a write.
	StoreTTL time.Duration `env:"STORE_TTL" envDefault:"24h"`

	// IdleTTL is how long an in-memory session controller survives
	// without a request before it is evicted.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"30m"`

	// KeyPrefix namespaces all session keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"console:session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.StoreTTL <= 0 {
		s.StoreTTL = 24 * time.Hour
	}
	if s.IdleTTL <= 0 {
		s.IdleTTL = 30 * time.Minute
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "console:session:"
	}
}
