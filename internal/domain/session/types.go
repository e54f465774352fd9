package session

// Package session contains domain-level types for the operator session:
// the authenticated user, role/permission references, and the session record.
// It is pure and free of transport/adapter concerns.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Privileged role slugs that unlock the administrative route subtree.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdminSV    = "admin_sv"
	RoleAdminGT    = "admin_gt"
)

// AdminRoles lists the role names that grant access to /admin routes.
var AdminRoles = []string{RoleSuperAdmin, RoleAdminSV, RoleAdminGT}

// RoleRef is a normalized reference to a role held by a user. The backend may
// deliver role entries either as bare name strings or as structured records;
// both forms unmarshal into this one shape so callers never branch on
// representation. Name is always populated after a successful unmarshal.
type RoleRef struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	GuardName string `json:"guard_name,omitempty"`
}

// UnmarshalJSON accepts either "role_name" or {"id":1,"name":"role_name",...}.
func (r *RoleRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("unmarshal role name: %w", err)
		}
		*r = RoleRef{Name: name}
		return nil
	}

	type roleRefAlias RoleRef
	var alias roleRefAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("unmarshal role record: %w", err)
	}
	*r = RoleRef(alias)
	if r.Name == "" {
		return fmt.Errorf("role record missing name: %s", trimmed)
	}
	return nil
}

// PermissionRef is a normalized reference to a permission, with the same
// string-or-record unmarshal behavior as RoleRef.
type PermissionRef struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	GuardName string `json:"guard_name,omitempty"`
}

// UnmarshalJSON accepts either "permission-name" or a structured record.
func (p *PermissionRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("unmarshal permission name: %w", err)
		}
		*p = PermissionRef{Name: name}
		return nil
	}

	type permissionRefAlias PermissionRef
	var alias permissionRefAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("unmarshal permission record: %w", err)
	}
	*p = PermissionRef(alias)
	if p.Name == "" {
		return fmt.Errorf("permission record missing name: %s", trimmed)
	}
	return nil
}

// Group is a named bundle of permissions assigned to users. The backend uses
// "group" and "role" interchangeably across versions; the slug in Name is
// immutable, DisplayName is free to change.
type Group struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// User is the authenticated operator record as returned by the backend after
// normalization. AllowedCountries constrains the selectable country; see
// Session.SelectedCountry.
type User struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	UserType         string          `json:"user_type,omitempty"`
	PrimaryCountry   string          `json:"country,omitempty"`
	AllowedCountries []string        `json:"allowed_countries,omitempty"`
	Roles            []RoleRef       `json:"roles,omitempty"`
	Permissions      []PermissionRef `json:"permissions,omitempty"`
	Active           bool            `json:"active"`
}

// HasRole reports whether the user holds any of the named roles.
func (u *User) HasRole(names ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		for _, name := range names {
			if r.Name == name {
				return true
			}
		}
	}
	return false
}

// HasPermission reports whether the user holds any of the named permissions.
func (u *User) HasPermission(names ...string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		for _, name := range names {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}

// AllowsCountry reports whether code is one of the user's allowed countries.
// Users with no explicit allowed list are constrained to their primary country.
func (u *User) AllowsCountry(code string) bool {
	if u == nil || code == "" {
		return false
	}
	if len(u.AllowedCountries) == 0 {
		return code == u.PrimaryCountry
	}
	for _, c := range u.AllowedCountries {
		if c == code {
			return true
		}
	}
	return false
}

// RoleNames returns the normalized role names in order.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Session is the in-memory plus persisted record of the current authenticated
// identity, token, and country selection. It is exclusively owned by the
// session controller; the store is a passive durable mirror.
type Session struct {
	AccessToken     string `json:"access_token,omitempty"`
	User            *User  `json:"user,omitempty"`
	SelectedCountry string `json:"selected_country,omitempty"`
}

// IsAuthenticated reports whether the session carries both a token and a user.
func (s Session) IsAuthenticated() bool {
	return strings.TrimSpace(s.AccessToken) != "" && s.User != nil
}
