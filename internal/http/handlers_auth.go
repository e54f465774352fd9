package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/service"
)

// AuthHandlers provides HTTP handlers for the session lifecycle.
type AuthHandlers struct {
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country,omitempty"`
}

type sessionResponse struct {
	State           service.SessionState `json:"state"`
	Loading         bool                 `json:"loading"`
	User            *domainsession.User  `json:"user,omitempty"`
	SelectedCountry string               `json:"selected_country,omitempty"`
}

func snapshotResponse(snap service.SessionSnapshot) sessionResponse {
	return sessionResponse{
		State:           snap.State,
		Loading:         snap.Loading,
		User:            snap.User,
		SelectedCountry: snap.SelectedCountry,
	}
}

// Login handles POST /api/auth/login. On success it returns the session
// snapshot and the landing target the client should navigate to.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var body loginBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_credentials",
			Err:     errors.New("email and password are required"),
		})
		return
	}

	if err := svc.Login(r.Context(), body.Email, body.Password, body.Country); err != nil {
		h.logger().InfoContext(r.Context(), "login rejected", "email", body.Email)
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"session":  snapshotResponse(svc.Snapshot()),
		"redirect": LandingPath,
	})
}

// Logout handles POST /api/auth/logout. Always succeeds locally; the client
// should navigate to the login page.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := svc.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"session":  snapshotResponse(svc.Snapshot()),
		"redirect": LoginPath,
	})
}

// Session handles GET /api/auth/session: the current snapshot for the
// client's guard evaluation.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, snapshotResponse(svc.Snapshot()))
}

// Verify handles GET /api/auth/verify: asks the backend whether the current
// token is still accepted. A failure ends the session.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := svc.Backend().Verify(r.Context()); err != nil {
		if logoutErr := svc.Logout(r.Context()); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout after failed verify", "error", logoutErr)
		}
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
}

type countryBody struct {
	Country string `json:"country"`
}

// ChangeCountry handles POST /api/auth/country.
func (h *AuthHandlers) ChangeCountry(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var body countryBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Country) == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_country",
			Err:     errors.New("country is required"),
		})
		return
	}

	if err := svc.ChangeCountry(r.Context(), body.Country); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshotResponse(svc.Snapshot()))
}

// RefreshUser handles POST /api/auth/refresh-user: re-fetches the operator
// record from the backend.
func (h *AuthHandlers) RefreshUser(w http.ResponseWriter, r *http.Request) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := svc.RefreshUser(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshotResponse(svc.Snapshot()))
}
