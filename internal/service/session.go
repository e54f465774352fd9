package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// SessionState is the lifecycle state of one console session.
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateRestoring     SessionState = "restoring"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// SessionSnapshot is an immutable view of the session for consumers. The
// user pointer is shared; consumers must treat it as read-only.
type SessionSnapshot struct {
	State           SessionState
	Loading         bool
	User            *domainsession.User
	SelectedCountry string
}

// IsAuthenticated reports whether the snapshot is in the authenticated state.
func (s SessionSnapshot) IsAuthenticated() bool { return s.State == StateAuthenticated }

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Backend ports.AuthBackend
	Store   ports.SessionStore
	// Audit is optional; recording is best-effort and never fails a flow.
	Audit  ports.AuditRecorder
	Logger *slog.Logger
}

// SessionService owns one console session's lifecycle:
// uninitialized -> restoring -> {authenticated, anonymous}, with
// authenticated -> anonymous on logout or fatal session failure, and
// self-transitions on country change and user refresh. It is the only
// writer of its store; the store is a passive durable mirror.
type SessionService struct {
	backend ports.AuthBackend
	store   ports.SessionStore
	audit   ports.AuditRecorder
	logger  *slog.Logger

	mu          sync.RWMutex
	state       SessionState
	loading     bool
	session     domainsession.Session
	subscribers map[int]func(SessionSnapshot)
	nextSubID   int
}

// NewSessionService constructs a SessionService in the uninitialized state.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Backend == nil {
		return nil, errors.New("auth backend is required")
	}
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		backend:     opts.Backend,
		store:       opts.Store,
		audit:       opts.Audit,
		logger:      logger,
		state:       StateUninitialized,
		subscribers: make(map[int]func(SessionSnapshot)),
	}, nil
}

// Backend returns the gateway bound to this session's store. Callers that
// need the admin directory surfaces assert the wider interfaces on it.
func (s *SessionService) Backend() ports.AuthBackend { return s.backend }

// Snapshot returns the current session view.
func (s *SessionService) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *SessionService) snapshotLocked() SessionSnapshot {
	return SessionSnapshot{
		State:           s.state,
		Loading:         s.loading,
		User:            s.session.User,
		SelectedCountry: s.session.SelectedCountry,
	}
}

// Subscribe registers fn to run after every state change. The returned
// function removes the subscription.
func (s *SessionService) Subscribe(fn func(SessionSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify runs subscribers outside the lock with a consistent snapshot.
func (s *SessionService) notify(snap SessionSnapshot, fns []func(SessionSnapshot)) {
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *SessionService) transition(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	fns := make([]func(SessionSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	s.notify(snap, fns)
}

// Restore initializes the session from the store. With both a token and a
// cached user present it enters authenticated optimistically, then validates
// against the backend with the loading flag raised; failed validation is a
// hard transition to anonymous with the store cleared. Without a complete
// cached session it settles in anonymous immediately.
func (s *SessionService) Restore(ctx context.Context) error {
	s.transition(func() { s.state = StateRestoring; s.loading = true })

	token, err := s.store.GetToken(ctx)
	if err != nil {
		s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read the stored session.")
	}
	user, err := s.store.GetUser(ctx)
	if err != nil {
		s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read the stored session.")
	}

	if token == "" || user == nil {
		s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
		return nil
	}

	country, err := s.store.GetCountry(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read stored country failed", "error", err)
	}

	// Optimistic entry with the cached user; validation follows.
	s.transition(func() {
		s.state = StateAuthenticated
		s.loading = true
		s.session = domainsession.Session{AccessToken: token, User: user, SelectedCountry: country}
	})

	fresh, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.InfoContext(ctx, "session validation failed", "error", err)
		s.expire(ctx, user.Email)
		return nil
	}

	s.transition(func() {
		s.loading = false
		s.session.User = fresh
	})
	if setErr := s.store.SetUser(ctx, fresh); setErr != nil {
		s.logger.WarnContext(ctx, "persist validated user failed", "error", setErr)
	}
	return nil
}

// Login authenticates against the backend and, on success, persists the
// token, user, and country selection and enters authenticated. On failure
// the session stays anonymous and the error carries the sanitized message.
func (s *SessionService) Login(ctx context.Context, email, password, country string) error {
	result, err := s.backend.Login(ctx, ports.Credentials{Email: email, Password: password, Country: country})
	if err != nil {
		s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
		s.record(ctx, domainaudit.Event{ActorEmail: email, Action: domainaudit.ActionLoginFailed, Country: country})
		return err
	}

	selected := country
	if selected == "" {
		selected = result.User.PrimaryCountry
	}

	if err := s.store.SetToken(ctx, result.Token); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not persist the session.")
	}
	if err := s.store.SetUser(ctx, result.User); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not persist the session.")
	}
	if selected != "" {
		if err := s.store.SetCountry(ctx, selected); err != nil {
			s.logger.WarnContext(ctx, "persist country failed", "error", err)
		}
	}

	s.transition(func() {
		s.state = StateAuthenticated
		s.loading = false
		s.session = domainsession.Session{AccessToken: result.Token, User: result.User, SelectedCountry: selected}
	})
	s.record(ctx, domainaudit.Event{ActorEmail: result.User.Email, Action: domainaudit.ActionLogin, Country: selected})
	return nil
}

// Logout signs out. The backend call is best-effort; local state and the
// store are cleared regardless, so calling it while already anonymous is a
// no-op that still leaves an empty store.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.RLock()
	actor := ""
	if s.session.User != nil {
		actor = s.session.User.Email
	}
	hadToken := strings.TrimSpace(s.session.AccessToken) != ""
	s.mu.RUnlock()

	if hadToken {
		if err := s.backend.Logout(ctx); err != nil {
			s.logger.WarnContext(ctx, "backend logout failed", "error", err)
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear session store failed", "error", err)
	}
	s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
	if actor != "" {
		s.record(ctx, domainaudit.Event{ActorEmail: actor, Action: domainaudit.ActionLogout})
	}
	return nil
}

// ChangeCountry switches the selected country. Codes outside the user's
// allowed set are rejected without touching any state. A successful switch
// persists the selection and re-validates the user against the backend.
func (s *SessionService) ChangeCountry(ctx context.Context, code string) error {
	s.mu.RLock()
	user := s.session.User
	state := s.state
	s.mu.RUnlock()

	if state != StateAuthenticated || user == nil {
		return apperrors.SessionExpired("Your session has expired. Please sign in again.")
	}
	if !user.AllowsCountry(code) {
		return apperrors.InvalidInputField("country", "You don't have access to that country.")
	}

	if err := s.store.SetCountry(ctx, code); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not persist the country selection.")
	}
	s.transition(func() { s.session.SelectedCountry = code })
	s.record(ctx, domainaudit.Event{ActorEmail: user.Email, Action: domainaudit.ActionCountryChange, Country: code})

	return s.RefreshUser(ctx)
}

// RefreshUser re-fetches the current user from the backend and updates the
// cached record. A session-expired failure is fatal and forces anonymous.
func (s *SessionService) RefreshUser(ctx context.Context) error {
	s.mu.RLock()
	state := s.state
	actor := ""
	if s.session.User != nil {
		actor = s.session.User.Email
	}
	s.mu.RUnlock()

	if state != StateAuthenticated {
		return apperrors.SessionExpired("Your session has expired. Please sign in again.")
	}

	fresh, err := s.backend.Me(ctx)
	if err != nil {
		if apperrors.IsSessionExpired(err) {
			s.expire(ctx, actor)
		}
		return err
	}

	s.transition(func() { s.session.User = fresh })
	if setErr := s.store.SetUser(ctx, fresh); setErr != nil {
		s.logger.WarnContext(ctx, "persist refreshed user failed", "error", setErr)
	}
	return nil
}

// HasRole reports whether the current user holds any of the named roles.
// Always false without a user.
func (s *SessionService) HasRole(names ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User.HasRole(names...)
}

// HasPermission reports whether the current user holds any of the named
// permissions. Always false without a user.
func (s *SessionService) HasPermission(names ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User.HasPermission(names...)
}

// Expire is the fatal session failure path for callers that observe a
// session-expired error outside this service, such as a backend passthrough
// dying mid-request. It clears the store and drops to anonymous so the next
// guard evaluation sees the session as gone. No-op when not authenticated.
func (s *SessionService) Expire(ctx context.Context) {
	s.mu.RLock()
	state := s.state
	actor := ""
	if s.session.User != nil {
		actor = s.session.User.Email
	}
	s.mu.RUnlock()

	if state != StateAuthenticated {
		return
	}
	s.expire(ctx, actor)
}

// expire is the fatal session failure path: clear the store, drop to
// anonymous.
func (s *SessionService) expire(ctx context.Context, actor string) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear session store failed", "error", err)
	}
	s.transition(func() { s.state = StateAnonymous; s.loading = false; s.session = domainsession.Session{} })
	if actor != "" {
		s.record(ctx, domainaudit.Event{ActorEmail: actor, Action: domainaudit.ActionSessionExpired})
	}
}

// record writes an audit event; failures are logged, never surfaced.
func (s *SessionService) record(ctx context.Context, ev domainaudit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", ev.Action, "error", err)
	}
}
