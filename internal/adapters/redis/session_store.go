package redis

// Package redis provides the Redis-backed session store for the console.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/ports"
)

const (
	defaultPrefix = "console:session:"
	defaultTTL    = 24 * time.Hour
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore holds one console session's token, user snapshot, and selected
// country under a shared key scope. Every write refreshes the scope's TTL so
// an active session never ages out mid-use.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	sid    string
	ttl    time.Duration
}

// NewSessionStore creates a store scoped to one console session ID.
func NewSessionStore(client redis.UniversalClient, sid string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: defaultPrefix,
		sid:    sid,
		ttl:    defaultTTL,
	}
}

// NewSessionStoreWithOptions creates a store with a custom key prefix and TTL.
// Zero values fall back to the defaults.
func NewSessionStoreWithOptions(client redis.UniversalClient, sid, prefix string, ttl time.Duration) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SessionStore{client: client, prefix: prefix, sid: sid, ttl: ttl}
}

func (s *SessionStore) tokenKey() string   { return s.prefix + s.sid + ":token" }
func (s *SessionStore) userKey() string    { return s.prefix + s.sid + ":user" }
func (s *SessionStore) countryKey() string { return s.prefix + s.sid + ":country" }

// GetToken returns the stored bearer token, or "" when no usable token
// exists. A whitespace-only value counts as absent.
func (s *SessionStore) GetToken(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.tokenKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get token: %w", err)
	}
	if strings.TrimSpace(val) == "" {
		return "", nil
	}
	return val, nil
}

func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.tokenKey(), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// GetUser returns the stored user snapshot, or nil when none exists. A
// payload that does not parse into a valid user is purged so a poisoned
// entry cannot wedge the session.
func (s *SessionStore) GetUser(ctx context.Context) (*domainsession.User, error) {
	val, err := s.client.Get(ctx, s.userKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get user: %w", err)
	}

	var user domainsession.User
	if unmarshalErr := json.Unmarshal([]byte(val), &user); unmarshalErr != nil || user.ID == 0 {
		if delErr := s.client.Del(ctx, s.userKey()).Err(); delErr != nil {
			return nil, fmt.Errorf("purge corrupt user entry: %w", delErr)
		}
		return nil, nil
	}
	return &user, nil
}

func (s *SessionStore) SetUser(ctx context.Context, user *domainsession.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.Set(ctx, s.userKey(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user: %w", err)
	}
	return nil
}

// GetCountry returns the selected country code, or "" when none is stored.
func (s *SessionStore) GetCountry(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.countryKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get country: %w", err)
	}
	return val, nil
}

func (s *SessionStore) SetCountry(ctx context.Context, code string) error {
	if err := s.client.Set(ctx, s.countryKey(), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set country: %w", err)
	}
	return nil
}

// Clear removes the token, user, and country entries in one round trip so a
// sign-out never leaves a partial session behind.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.userKey(), s.countryKey()).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
