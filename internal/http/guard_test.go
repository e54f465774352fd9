package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitrinnea/admin-console/internal/service"
)

func TestDecide_WaitWhileLoading(t *testing.T) {
	res := Decide(GuardInput{State: service.StateRestoring, Loading: true, Path: "/admin/users"})
	assert.Equal(t, DecisionWait, res.Decision)
	assert.Empty(t, res.Target)
}

func TestDecide_AnonymousRedirectsToLogin(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "admin subtree", path: "/admin/users"},
		{name: "landing", path: "/profile"},
		{name: "root", path: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Decide(GuardInput{State: service.StateAnonymous, Path: tt.path})
			assert.Equal(t, DecisionRedirect, res.Decision)
			assert.Equal(t, LoginPath, res.Target)
		})
	}
}

func TestDecide_AnonymousOnLoginRenders(t *testing.T) {
	res := Decide(GuardInput{State: service.StateAnonymous, Path: LoginPath})
	assert.Equal(t, DecisionRender, res.Decision)
}

func TestDecide_AuthenticatedOnLoginRedirectsToLanding(t *testing.T) {
	res := Decide(GuardInput{
		State: service.StateAuthenticated,
		Path:  LoginPath,
		Roles: []string{"employee"},
	})
	assert.Equal(t, DecisionRedirect, res.Decision)
	assert.Equal(t, LandingPath, res.Target)
}

// An authenticated user without a privileged role is sent to the landing
// page instead of the admin subtree.
func TestDecide_AdminWithoutPrivilegedRole(t *testing.T) {
	res := Decide(GuardInput{
		State: service.StateAuthenticated,
		Path:  "/admin/users",
		Roles: []string{"employee"},
	})
	assert.Equal(t, DecisionRedirect, res.Decision)
	assert.Equal(t, LandingPath, res.Target)
}

func TestDecide_AdminWithPrivilegedRole(t *testing.T) {
	for _, role := range []string{"super_admin", "admin_sv", "admin_gt"} {
		res := Decide(GuardInput{
			State: service.StateAuthenticated,
			Path:  "/admin/users",
			Roles: []string{"employee", role},
		})
		assert.Equal(t, DecisionRender, res.Decision, "role %s", role)
	}
}

func TestDecide_AdminPrefixBoundary(t *testing.T) {
	// /administration is not under the admin subtree.
	res := Decide(GuardInput{
		State: service.StateAuthenticated,
		Path:  "/administration",
		Roles: []string{"employee"},
	})
	assert.Equal(t, DecisionRender, res.Decision)

	// The bare prefix is.
	res = Decide(GuardInput{
		State: service.StateAuthenticated,
		Path:  AdminPrefix,
		Roles: []string{"employee"},
	})
	assert.Equal(t, DecisionRedirect, res.Decision)
}

func TestDecide_AuthenticatedElsewhereRenders(t *testing.T) {
	res := Decide(GuardInput{
		State: service.StateAuthenticated,
		Path:  "/profile",
		Roles: nil,
	})
	assert.Equal(t, DecisionRender, res.Decision)
}
