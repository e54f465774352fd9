package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
	"github.com/vitrinnea/admin-console/internal/ports"
	"github.com/vitrinnea/admin-console/internal/service"
)

func sessionAndGroups(w http.ResponseWriter, r *http.Request) (*service.SessionService, ports.GroupDirectory, bool) {
	svc, ok := GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	dir, ok := svc.Backend().(ports.GroupDirectory)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "directory_unavailable",
			Err:     errors.New("group administration is not available in this mode"),
		})
		return nil, nil, false
	}
	return svc, dir, true
}

// ListGroups handles GET /api/admin/groups.
func (h *AdminHandlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}

	groups, err := dir.ListGroups(r.Context())
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// GetGroup handles GET /api/admin/groups/{id}.
func (h *AdminHandlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := dir.GetGroup(r.Context(), id)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"group": group})
}

// CreateGroup handles POST /api/admin/groups.
func (h *AdminHandlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}

	var in ports.CreateGroupInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	group, err := dir.CreateGroup(r.Context(), in)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionGroupCreate, fmt.Sprintf("group:%d", group.ID))
	WriteJSON(w, http.StatusCreated, map[string]any{"group": group})
}

// UpdateGroup handles PUT /api/admin/groups/{id}.
func (h *AdminHandlers) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in ports.UpdateGroupInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	group, err := dir.UpdateGroup(r.Context(), id, in)
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionGroupUpdate, fmt.Sprintf("group:%d", id))
	WriteJSON(w, http.StatusOK, map[string]any{"group": group})
}

// DeleteGroup handles DELETE /api/admin/groups/{id}.
func (h *AdminHandlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := dir.DeleteGroup(r.Context(), id); err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionGroupDelete, fmt.Sprintf("group:%d", id))
	w.WriteHeader(http.StatusNoContent)
}

type assignPermissionsBody struct {
	Permissions []int64 `json:"permissions"`
}

// AssignPermissions handles POST /api/admin/groups/{id}/permissions.
func (h *AdminHandlers) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body assignPermissionsBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := dir.AssignPermissions(r.Context(), id, body.Permissions); err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}

	h.record(r, svc, domainaudit.ActionPermsAssign, fmt.Sprintf("group:%d", id))
	w.WriteHeader(http.StatusNoContent)
}

// ListPermissions handles GET /api/admin/permissions.
func (h *AdminHandlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	svc, dir, ok := sessionAndGroups(w, r)
	if !ok {
		return
	}

	perms, err := dir.ListPermissions(r.Context())
	if err != nil {
		writePassthroughError(w, r, svc, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

// ListAudit handles GET /api/admin/audit: the console's own audit trail.
func (h *AdminHandlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "audit_unavailable",
			Err:     errors.New("the audit trail is not configured"),
		})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	events, err := h.Audit.ListRecent(r.Context(), limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
