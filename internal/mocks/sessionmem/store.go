package sessionmem

// Package sessionmem provides an in-memory SessionStore double for unit
// tests. It stores raw serialized values so tests can exercise the same
// defensive-parse contract the durable adapters implement.

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// Compile-time conformance to the port.
var _ ports.SessionStore = (*Store)(nil)

// Store is an in-memory session store for unit tests.
type Store struct {
	mu      sync.Mutex
	token   string
	userRaw string
	country string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) GetToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(s.token) == "" {
		return "", nil
	}
	return s.token, nil
}

func (s *Store) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *Store) GetUser(_ context.Context) (*domainsession.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userRaw == "" {
		return nil, nil
	}
	var user domainsession.User
	if err := json.Unmarshal([]byte(s.userRaw), &user); err != nil || user.ID == 0 {
		// Corrupted entry: treat as absent and purge.
		s.userRaw = ""
		return nil, nil
	}
	return &user, nil
}

func (s *Store) SetUser(_ context.Context, user *domainsession.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.userRaw = ""
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.userRaw = string(data)
	return nil
}

func (s *Store) GetCountry(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.country, nil
}

func (s *Store) SetCountry(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.country = code
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userRaw = ""
	s.country = ""
	return nil
}

// SeedRawUser plants a raw serialized user value, bypassing SetUser's
// marshaling. Tests use it to simulate corrupted stored state.
func (s *Store) SeedRawUser(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userRaw = raw
}

// Empty reports whether all three entries are absent.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == "" && s.userRaw == "" && s.country == ""
}
