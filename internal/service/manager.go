package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinnea/admin-console/internal/ports"
)

const defaultIdleTTL = 30 * time.Minute

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	// NewStore builds the durable store scoped to one console session ID.
	NewStore func(sid string) ports.SessionStore
	// NewBackend builds the backend gateway bound to that store.
	NewBackend func(store ports.SessionStore) (ports.AuthBackend, error)
	// Audit is optional and shared across sessions.
	Audit  ports.AuditRecorder
	Logger *slog.Logger
	// IdleTTL evicts controllers untouched for this long. Zero means the
	// default.
	IdleTTL time.Duration
}

type managedSession struct {
	svc      *SessionService
	lastSeen time.Time
}

// SessionManager maps console session IDs (cookie values) to their one
// SessionService instance, preserving the one-controller-per-session
// invariant across concurrent requests.
type SessionManager struct {
	newStore   func(sid string) ports.SessionStore
	newBackend func(store ports.SessionStore) (ports.AuthBackend, error)
	audit      ports.AuditRecorder
	logger     *slog.Logger
	idleTTL    time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.NewStore == nil {
		return nil, errors.New("store factory is required")
	}
	if opts.NewBackend == nil {
		return nil, errors.New("backend factory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idleTTL := opts.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &SessionManager{
		newStore:   opts.NewStore,
		newBackend: opts.NewBackend,
		audit:      opts.Audit,
		logger:     logger,
		idleTTL:    idleTTL,
		sessions:   make(map[string]*managedSession),
	}, nil
}

// NewSessionID mints a fresh console session ID for the cookie.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the controller for sid, creating and restoring one on first
// sight. Restore failures leave the controller anonymous but usable.
func (m *SessionManager) Get(ctx context.Context, sid string) (*SessionService, error) {
	if sid == "" {
		return nil, errors.New("session ID is required")
	}

	m.mu.Lock()
	if ms, ok := m.sessions[sid]; ok {
		ms.lastSeen = time.Now()
		m.mu.Unlock()
		return ms.svc, nil
	}
	m.mu.Unlock()

	store := m.newStore(sid)
	backend, err := m.newBackend(store)
	if err != nil {
		return nil, err
	}
	svc, err := NewSessionService(SessionServiceOptions{
		Backend: backend,
		Store:   store,
		Audit:   m.audit,
		Logger:  m.logger.With("sid", sid),
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	// Another request may have won the race while the controller was built.
	if ms, ok := m.sessions[sid]; ok {
		ms.lastSeen = time.Now()
		m.mu.Unlock()
		return ms.svc, nil
	}
	m.sessions[sid] = &managedSession{svc: svc, lastSeen: time.Now()}
	m.mu.Unlock()

	if err := svc.Restore(ctx); err != nil {
		m.logger.WarnContext(ctx, "session restore failed", "sid", sid, "error", err)
	}
	return svc, nil
}

// Drop removes the controller for sid, if any. The durable store entries
// are untouched; a later Get restores from them.
func (m *SessionManager) Drop(sid string) {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
}

// EvictIdle removes controllers untouched since the idle cutoff and returns
// how many were evicted.
func (m *SessionManager) EvictIdle(now time.Time) int {
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for sid, ms := range m.sessions {
		if ms.lastSeen.Before(cutoff) {
			delete(m.sessions, sid)
			evicted++
		}
	}
	return evicted
}

// Run periodically evicts idle controllers until ctx is done.
func (m *SessionManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := m.EvictIdle(now); n > 0 {
				m.logger.DebugContext(ctx, "evicted idle sessions", "count", n)
			}
		}
	}
}

// Len reports the number of live controllers.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
