package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

func TestClient_Login_Success(t *testing.T) {
	var gotBody loginRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success":      true,
			"access_token": "tok-abc",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"user": map[string]any{
				"id": 3, "name": "Ana", "email": "ana@vitrinnea.com",
				"country": "SV",
				"roles":   []any{"admin_sv", map[string]any{"id": 2, "name": "editor"}},
			},
		})
	})
	client, _ := newTestClient(t, handler)

	result, err := client.Login(context.Background(), ports.Credentials{
		Email: "ana@vitrinnea.com", Password: "secret", Country: "SV",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@vitrinnea.com", gotBody.Email)
	assert.Equal(t, "SV", gotBody.Country)
	assert.Equal(t, "tok-abc", result.Token)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	require.NotNil(t, result.User)

	// Mixed string and record role shapes both normalize to names.
	assert.True(t, result.User.HasRole("admin_sv"))
	assert.True(t, result.User.HasRole("editor"))
}

// Rejected credentials come back as invalid-credentials, never as an expired
// session, and never trigger a refresh attempt.
func TestClient_Login_RejectedCredentials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusUnprocessableEntity} {
		var refreshCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, status, map[string]any{"success": false, "message": "These credentials do not match our records."})
		})
		mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "access_token": "x"})
		})
		client, store := newTestClient(t, mux)

		_, err := client.Login(context.Background(), ports.Credentials{Email: "a@b.c", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidCredentials(err), "status %d", status)
		assert.False(t, apperrors.IsSessionExpired(err), "status %d", status)
		assert.Equal(t, int32(0), refreshCalls.Load())
		assert.True(t, store.Empty())
	}
}

func TestClient_Login_SuccessFlagFalse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "message": "account locked"})
	})
	client, _ := newTestClient(t, handler)

	_, err := client.Login(context.Background(), ports.Credentials{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestClient_Login_MissingTokenOrUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "access_token": ""})
	})
	client, _ := newTestClient(t, handler)

	_, err := client.Login(context.Background(), ports.Credentials{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestClient_Logout_NoRefreshOn401(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"success": false})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	client, _ := newTestClient(t, mux)

	err := client.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), refreshCalls.Load())
}

func TestClient_Refresh_PersistsTokenAndUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true, "access_token": "renewed", "token_type": "Bearer", "expires_in": 900,
			"user": map[string]any{"id": 9, "name": "Bea", "email": "bea@vitrinnea.com"},
		})
	})
	client, store := newTestClient(t, handler)
	require.NoError(t, store.SetToken(context.Background(), "old"))

	result, err := client.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renewed", result.Token)

	tok, err := store.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renewed", tok)

	user, err := store.GetUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(9), user.ID)
}

func TestClient_Refresh_EmptyToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "access_token": ""})
	})
	client, store := newTestClient(t, handler)
	require.NoError(t, store.SetToken(context.Background(), "old"))

	_, err := client.Refresh(context.Background())
	require.Error(t, err)

	// The stored token is untouched; only the gateway's retry path clears it.
	tok, err := store.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", tok)
}

func TestClient_Me_NormalizesRoleShapes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]any{
				"id": 5, "name": "Cai", "email": "cai@vitrinnea.com",
				"roles":       []any{map[string]any{"id": 1, "name": "super_admin", "guard_name": "web"}},
				"permissions": []any{"users.manage", map[string]any{"id": 4, "name": "groups.manage"}},
			},
		})
	})
	client, _ := newTestClient(t, handler)

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, user.HasRole("super_admin"))
	assert.True(t, user.HasPermission("users.manage"))
	assert.True(t, user.HasPermission("groups.manage"))
	assert.False(t, user.HasPermission("secrets.manage"))
}

func TestClient_Verify(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/verify", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})
	client, store := newTestClient(t, handler)
	require.NoError(t, store.SetToken(context.Background(), "tok"))

	require.NoError(t, client.Verify(context.Background()))
}
