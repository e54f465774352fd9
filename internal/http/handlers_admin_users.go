package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
	"github.com/vitrinnea/admin-console/internal/service"
)

// writePassthroughError writes a backend passthrough failure. A
// session-expired error means the gateway already cleared the store, so the
// controller must drop to anonymous too or the guard keeps treating the
// dead session as signed in.
func writePassthroughError(w http.ResponseWriter, r *http.Request, svc *service.SessionService, err error) {
	if apperrors.IsSessionExpired(err) {
		svc.Expire(r.Context())
	}
	WriteAppError(w, err)
}

// AdminHandlers passes admin CRUD operations through to the backend
// directories and records each mutation in the console audit trail.
type AdminHandlers struct {
	// Audit is optional; recording is best-effort.
	Audit  ports.AuditRecorder
	Logger *slog.Logger
}

func (h *AdminHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// record writes an audit event for a handler-level mutation.
func (h *AdminHandlers) record(r *http.Request, svc *service.SessionService, action domainaudit.Action, target string) {
	if h.Audit == nil {
		return
	}
	snap := svc.Snapshot()
	actor := ""
	if snap.User != nil {
		actor = snap.User.Email
	}
	ev := domainaudit.Event{
		ActorEmail: actor,
		Action:     action,
		Target:     target,
		Country:    snap.SelectedCountry,
		RequestID:  GetRequestIDFromContext(r.Context()),
	}
	if err := h.Audit.Record(r.Context(), ev); err != nil {
		h.logger().WarnContext(r.Context(), "audit record failed", "action", action, "error", err)
	}
}

func sessionAndUsers(w http.ResponseWriter, r *http.Request) (*service.SessionService, ports.UserDirectory, bool) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	dir, ok := svc.Backend().(ports.UserDirectory)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "directory_unavailable",
			Err:     errors.New("user administration is not available in this mode"),
		})
		return nil, nil, false
	}
	return svc, dir, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_id",
			Err:     errors.New("id must be a positive integer"),
		})
		return 0, false
	}
	return id, true
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}

	opts := ports.ListOptions{Search: r.URL.Query().Get("search")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		opts.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		opts.PerPage = perPage
	}

	users, meta, err := dir.ListUsers(r.Context(), opts)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users, "meta": meta})
}

// GetUser handles GET /api/admin/users/{id}.
func (h *AdminHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := dir.GetUser(r.Context(), id)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}

	var in ports.CreateUserInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := dir.CreateUser(r.Context(), in)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionUserCreate, fmt.Sprintf("user:%d", user.ID))
	WriteJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *AdminHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in ports.UpdateUserInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := dir.UpdateUser(r.Context(), id, in)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionUserUpdate, fmt.Sprintf("user:%d", id))
	WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := dir.DeleteUser(r.Context(), id); err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionUserDelete, fmt.Sprintf("user:%d", id))
	w.WriteHeader(http.StatusNoContent)
}

type assignRolesBody struct {
	Roles []int64 `json:"roles"`
}

// AssignRoles handles POST /api/admin/users/{id}/roles.
func (h *AdminHandlers) AssignRoles(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndUsers(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body assignRolesBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := dir.AssignRoles(r.Context(), id, body.Roles); err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionRolesAssign, fmt.Sprintf("user:%d", id))
	w.WriteHeader(http.StatusNoContent)
}
