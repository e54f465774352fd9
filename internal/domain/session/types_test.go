package session

import (
	"encoding/json"
	"testing"
)

func TestRoleRef_UnmarshalString(t *testing.T) {
	var r RoleRef
	if err := json.Unmarshal([]byte(`"super_admin"`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Name != "super_admin" {
		t.Fatalf("unexpected role: %+v", r)
	}
}

func TestRoleRef_UnmarshalRecord(t *testing.T) {
	var r RoleRef
	data := []byte(`{"id":3,"name":"admin_sv","guard_name":"api"}`)
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != 3 || r.Name != "admin_sv" || r.GuardName != "api" {
		t.Fatalf("unexpected role: %+v", r)
	}
}

func TestRoleRef_UnmarshalRecordMissingName(t *testing.T) {
	var r RoleRef
	if err := json.Unmarshal([]byte(`{"id":3}`), &r); err == nil {
		t.Fatalf("expected error for record without name")
	}
}

func TestPermissionRef_UnmarshalMixedList(t *testing.T) {
	var perms []PermissionRef
	data := []byte(`["view-users",{"id":2,"name":"create-users"}]`)
	if err := json.Unmarshal(data, &perms); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(perms))
	}
	if perms[0].Name != "view-users" || perms[1].Name != "create-users" || perms[1].ID != 2 {
		t.Fatalf("unexpected permissions: %+v", perms)
	}
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []RoleRef{{Name: "employee"}, {Name: "admin_sv"}}}
	if !u.HasRole("admin_sv") {
		t.Fatalf("expected admin_sv")
	}
	if !u.HasRole("super_admin", "employee") {
		t.Fatalf("expected any-of match on employee")
	}
	if u.HasRole("super_admin") {
		t.Fatalf("did not expect super_admin")
	}
	var nilUser *User
	if nilUser.HasRole("employee") {
		t.Fatalf("nil user must not hold roles")
	}
}

func TestUser_HasRole_AfterMixedNormalization(t *testing.T) {
	// Membership checks behave identically whether the backend sent
	// strings or records.
	var u User
	data := []byte(`{"id":1,"name":"n","email":"e","roles":["employee",{"id":9,"name":"operations"}]}`)
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !u.HasRole("employee") || !u.HasRole("operations") {
		t.Fatalf("expected both roles after normalization: %+v", u.Roles)
	}
}

func TestUser_AllowsCountry(t *testing.T) {
	u := &User{PrimaryCountry: "SV", AllowedCountries: []string{"SV", "GT"}}
	if !u.AllowsCountry("GT") {
		t.Fatalf("expected GT allowed")
	}
	if u.AllowsCountry("FR") {
		t.Fatalf("did not expect FR allowed")
	}

	// No explicit list: only the primary country is selectable.
	u = &User{PrimaryCountry: "SV"}
	if !u.AllowsCountry("SV") {
		t.Fatalf("expected primary country allowed")
	}
	if u.AllowsCountry("GT") {
		t.Fatalf("did not expect GT allowed without explicit list")
	}
}

func TestSession_IsAuthenticated(t *testing.T) {
	s := Session{AccessToken: "tok", User: &User{ID: 1}}
	if !s.IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
	if (Session{AccessToken: "   ", User: &User{ID: 1}}).IsAuthenticated() {
		t.Fatalf("whitespace token must not authenticate")
	}
	if (Session{AccessToken: "tok"}).IsAuthenticated() {
		t.Fatalf("token without user must not authenticate")
	}
}
