package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/mocks/sessionmem"
	"github.com/vitrinnea/admin-console/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *sessionmem.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := sessionmem.New()
	client, err := NewClient(Options{BaseURL: srv.URL, Store: store})
	require.NoError(t, err)
	return client, store
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{Store: sessionmem.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")

	_, err = NewClient(Options{BaseURL: "http://localhost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session store")
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"id": 1, "name": "A", "email": "a@vitrinnea.com"}})
	})
	client, store := newTestClient(t, handler)
	require.NoError(t, store.SetToken(context.Background(), "tok-123"))

	_, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenNoAuthorizationHeader(t *testing.T) {
	var hadHeader bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadHeader = r.Header["Authorization"]
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"id": 1, "name": "A", "email": "a@vitrinnea.com"}})
	})
	client, _ := newTestClient(t, handler)

	_, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.False(t, hadHeader)
}

// A 401 on a regular request triggers exactly one refresh, the retried request
// carries the fresh token, and the caller only sees the final result.
func TestClient_RefreshOn401_RetriesOnce(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if meCalls.Add(1) == 1 {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthenticated."})
			return
		}
		assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{
			"id": 7, "name": "Ana", "email": "ana@vitrinnea.com", "roles": []string{"admin_sv"},
		}})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true, "access_token": "fresh-token", "token_type": "Bearer", "expires_in": 3600,
			"user": map[string]any{"id": 7, "name": "Ana", "email": "ana@vitrinnea.com"},
		})
	})

	client, store := newTestClient(t, mux)
	require.NoError(t, store.SetToken(context.Background(), "stale-token"))

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.True(t, user.HasRole("admin_sv"))

	assert.Equal(t, int32(2), meCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())

	tok, err := store.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)
}

// When the refresh itself is rejected the session is cleared and the caller
// gets session-expired.
func TestClient_RefreshFails_ClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthenticated."})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired."})
	})

	client, store := newTestClient(t, mux)
	require.NoError(t, store.SetToken(context.Background(), "dead-token"))

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.True(t, store.Empty())
}

// A retried request that still comes back 401 never triggers a second
// refresh.
func TestClient_RetriedRequest_NoSecondRefresh(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "access_token": "new-token"})
	})

	client, store := newTestClient(t, mux)
	require.NoError(t, store.SetToken(context.Background(), "stale"))

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.Equal(t, int32(2), meCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.True(t, store.Empty())
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode apperrors.ErrorCode
	}{
		{name: "401 maps to session expired", status: http.StatusUnauthorized, wantCode: apperrors.ErrCodeSessionExpired},
		{name: "403 maps to forbidden", status: http.StatusForbidden, wantCode: apperrors.ErrCodeForbidden},
		{name: "404 maps to not found", status: http.StatusNotFound, wantCode: apperrors.ErrCodeNotFound},
		{name: "400 maps to invalid input", status: http.StatusBadRequest, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "422 maps to invalid input", status: http.StatusUnprocessableEntity, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "500 maps to server error", status: http.StatusInternalServerError, wantCode: apperrors.ErrCodeServerError},
		{name: "503 maps to server error", status: http.StatusServiceUnavailable, wantCode: apperrors.ErrCodeServerError},
		{name: "418 maps to unknown", status: http.StatusTeapot, wantCode: apperrors.ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, map[string]any{"success": false, "message": "backend detail"})
			})
			client, _ := newTestClient(t, handler)

			// Refresh disabled so the 401 case exercises the mapping itself.
			_, err := client.do(context.Background(), http.MethodGet, "/admin/users", nil, callOptions{noRefresh: true})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
		})
	}
}

// The surfaced message is generic; the backend's own message only survives in
// the wrapped cause.
func TestClient_SanitizedMessages(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "SQLSTATE 42601 near SELECT at pg_catalog",
		})
	})
	client, _ := newTestClient(t, handler)

	_, err := client.do(context.Background(), http.MethodGet, "/admin/users", nil, callOptions{noRefresh: true})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotContains(t, appErr.Message, "SQLSTATE")
	assert.Contains(t, appErr.Message, "try again")
	require.NotNil(t, appErr.Cause)
	assert.Contains(t, appErr.Cause.Error(), "SQLSTATE 42601")
}

func TestClient_TransportFailure_MapsToUnknown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	store := sessionmem.New()
	client, err := NewClient(Options{BaseURL: srv.URL, Store: store})
	require.NoError(t, err)

	_, err = client.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknown, apperrors.GetCode(err))
}

func TestClient_EnvelopeSuccessFalse_IsFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "message": "nope"})
	})
	client, _ := newTestClient(t, handler)

	_, _, err := client.ListUsers(context.Background(), ports.ListOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknown, apperrors.GetCode(err))
}
