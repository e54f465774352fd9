package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/mocks"
	"github.com/vitrinnea/admin-console/internal/mocks/sessionmem"
	"github.com/vitrinnea/admin-console/internal/ports"
)

func testUser() *domainsession.User {
	return &domainsession.User{
		ID:               1,
		Name:             "Ana",
		Email:            "ana@vitrinnea.com",
		PrimaryCountry:   "SV",
		AllowedCountries: []string{"SV", "GT"},
		Roles:            []domainsession.RoleRef{{Name: "admin_sv"}},
		Permissions:      []domainsession.PermissionRef{{Name: "users.manage"}},
	}
}

func newTestService(t *testing.T, backend ports.AuthBackend) (*SessionService, *sessionmem.Store) {
	t.Helper()
	store := sessionmem.New()
	svc, err := NewSessionService(SessionServiceOptions{Backend: backend, Store: store})
	require.NoError(t, err)
	return svc, store
}

func TestNewSessionService_Validation(t *testing.T) {
	_, err := NewSessionService(SessionServiceOptions{Store: sessionmem.New()})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = NewSessionService(SessionServiceOptions{Backend: mocks.NewMockAuthBackend(ctrl)})
	require.Error(t, err)
}

func TestSessionService_StartsUninitialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestService(t, mocks.NewMockAuthBackend(ctrl))

	snap := svc.Snapshot()
	assert.Equal(t, StateUninitialized, snap.State)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
}

func TestSessionService_Restore_EmptyStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestService(t, mocks.NewMockAuthBackend(ctrl))

	require.NoError(t, svc.Restore(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.False(t, snap.Loading)
}

func TestSessionService_Restore_ValidCachedSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	cached := testUser()
	require.NoError(t, store.SetToken(ctx, "tok"))
	require.NoError(t, store.SetUser(ctx, cached))
	require.NoError(t, store.SetCountry(ctx, "GT"))

	fresh := testUser()
	fresh.Name = "Ana Maria"
	backend.EXPECT().Me(gomock.Any()).Return(fresh, nil)

	// Track the optimistic authenticated transition while validation runs.
	var sawLoadingAuthenticated bool
	unsubscribe := svc.Subscribe(func(snap SessionSnapshot) {
		if snap.State == StateAuthenticated && snap.Loading {
			sawLoadingAuthenticated = true
		}
	})
	defer unsubscribe()

	require.NoError(t, svc.Restore(ctx))

	snap := svc.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.Loading)
	assert.Equal(t, "Ana Maria", snap.User.Name)
	assert.Equal(t, "GT", snap.SelectedCountry)
	assert.True(t, sawLoadingAuthenticated)
}

func TestSessionService_Restore_FailedValidationClearsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	require.NoError(t, store.SetToken(ctx, "dead"))
	require.NoError(t, store.SetUser(ctx, testUser()))

	backend.EXPECT().Me(gomock.Any()).Return(nil, apperrors.SessionExpired("expired"))

	require.NoError(t, svc.Restore(ctx))

	snap := svc.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.True(t, store.Empty())
}

func TestSessionService_Restore_TokenWithoutUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, store := newTestService(t, mocks.NewMockAuthBackend(ctrl))
	ctx := context.Background()

	require.NoError(t, store.SetToken(ctx, "tok"))

	require.NoError(t, svc.Restore(ctx))
	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
}

func TestSessionService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	user := testUser()
	backend.EXPECT().
		Login(gomock.Any(), ports.Credentials{Email: "ana@vitrinnea.com", Password: "pw", Country: "SV"}).
		Return(&ports.LoginResult{Token: "tok-1", User: user}, nil)

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))

	snap := svc.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "SV", snap.SelectedCountry)
	assert.True(t, svc.HasRole("admin_sv"))

	tok, err := store.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	stored, err := store.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.Email, stored.Email)

	country, err := store.GetCountry(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SV", country)
}

func TestSessionService_Login_DefaultsToPrimaryCountry(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, _ := newTestService(t, backend)

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)

	require.NoError(t, svc.Login(context.Background(), "ana@vitrinnea.com", "pw", ""))
	assert.Equal(t, "SV", svc.Snapshot().SelectedCountry)
}

func TestSessionService_Login_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	audit := mocks.NewMockAuditRecorder(ctrl)

	store := sessionmem.New()
	svc, err := NewSessionService(SessionServiceOptions{Backend: backend, Store: store, Audit: audit})
	require.NoError(t, err)

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.InvalidCredentials("Login failed. Please check your credentials."))
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domainaudit.Event) error {
			assert.Equal(t, domainaudit.ActionLoginFailed, ev.Action)
			return nil
		})

	err = svc.Login(context.Background(), "ana@vitrinnea.com", "wrong", "SV")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

func TestSessionService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	backend.EXPECT().Logout(gomock.Any()).Return(nil)

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))
	require.NoError(t, svc.Logout(ctx))

	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

// Logging out while already anonymous stays anonymous with an empty store,
// and skips the backend call entirely.
func TestSessionService_Logout_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))

	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

func TestSessionService_Logout_BackendFailureStillClears(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	backend.EXPECT().Logout(gomock.Any()).Return(apperrors.ServerError("boom"))

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))
	require.NoError(t, svc.Logout(ctx))

	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

// Expire ends an authenticated session without a backend round trip, for
// callers that already know the token is dead.
func TestSessionService_Expire(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))
	svc.Expire(ctx)

	snap := svc.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Nil(t, snap.User)
	assert.True(t, store.Empty())
}

// Expire on an anonymous session is a no-op.
func TestSessionService_Expire_AlreadyAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditRecorder(ctrl)
	store := sessionmem.New()
	svc, err := NewSessionService(SessionServiceOptions{
		Backend: mocks.NewMockAuthBackend(ctrl),
		Store:   store,
		Audit:   audit,
	})
	require.NoError(t, err)

	svc.Expire(context.Background())
	svc.Expire(context.Background())

	assert.Equal(t, StateUninitialized, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

// A country outside allowedCountries is rejected with no state change.
func TestSessionService_ChangeCountry_Rejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))

	err := svc.ChangeCountry(ctx, "FR")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Equal(t, "country", apperrors.GetField(err))

	snap := svc.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "SV", snap.SelectedCountry)

	country, err := store.GetCountry(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SV", country)
}

func TestSessionService_ChangeCountry_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	backend.EXPECT().Me(gomock.Any()).Return(testUser(), nil)

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))
	require.NoError(t, svc.ChangeCountry(ctx, "GT"))

	assert.Equal(t, "GT", svc.Snapshot().SelectedCountry)
	country, err := store.GetCountry(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GT", country)
}

func TestSessionService_ChangeCountry_Anonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestService(t, mocks.NewMockAuthBackend(ctrl))

	err := svc.ChangeCountry(context.Background(), "SV")
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
}

func TestSessionService_RefreshUser_SessionExpiredIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	backend.EXPECT().Me(gomock.Any()).Return(nil, apperrors.SessionExpired("expired"))

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))

	err := svc.RefreshUser(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.Equal(t, StateAnonymous, svc.Snapshot().State)
	assert.True(t, store.Empty())
}

// A transient backend failure during refresh keeps the session intact.
func TestSessionService_RefreshUser_TransientFailureKeepsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, store := newTestService(t, backend)
	ctx := context.Background()

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	backend.EXPECT().Me(gomock.Any()).Return(nil, apperrors.ServerError("boom"))

	require.NoError(t, svc.Login(ctx, "ana@vitrinnea.com", "pw", "SV"))

	err := svc.RefreshUser(ctx)
	require.Error(t, err)
	assert.Equal(t, StateAuthenticated, svc.Snapshot().State)
	assert.False(t, store.Empty())
}

func TestSessionService_Predicates_NoUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestService(t, mocks.NewMockAuthBackend(ctrl))

	assert.False(t, svc.HasRole("super_admin"))
	assert.False(t, svc.HasPermission("users.manage"))
}

func TestSessionService_Predicates_AnyOf(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, _ := newTestService(t, backend)

	backend.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(&ports.LoginResult{Token: "tok", User: testUser()}, nil)
	require.NoError(t, svc.Login(context.Background(), "ana@vitrinnea.com", "pw", "SV"))

	assert.True(t, svc.HasRole("super_admin", "admin_sv"))
	assert.False(t, svc.HasRole("super_admin", "admin_gt"))
	assert.True(t, svc.HasPermission("users.manage", "groups.manage"))
}

func TestSessionService_SubscribeUnsubscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAuthBackend(ctrl)
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	var calls int
	unsubscribe := svc.Subscribe(func(SessionSnapshot) { calls++ })

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 1, calls)

	unsubscribe()
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 1, calls)
}
