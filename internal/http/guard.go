package httpx

import (
	"strings"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/service"
)

// Route surface of the console.
const (
	LoginPath   = "/login"
	LandingPath = "/profile"
	AdminPrefix = "/admin"
)

// GuardDecision is the outcome of evaluating the route guard.
type GuardDecision int

const (
	// DecisionWait renders a neutral waiting state; no redirect is decided
	// while session restoration is outstanding.
	DecisionWait GuardDecision = iota
	// DecisionRender renders the requested view.
	DecisionRender
	// DecisionRedirect navigates to Guard.Target instead.
	DecisionRedirect
)

// GuardInput is everything the guard may consider. It is a pure function of
// this input; evaluation happens on every navigation and every session state
// change.
type GuardInput struct {
	State   service.SessionState
	Loading bool
	Path    string
	Roles   []string
}

// GuardResult pairs a decision with its redirect target.
type GuardResult struct {
	Decision GuardDecision
	Target   string
}

// Decide evaluates the guard rules in order: wait while loading; anonymous
// visitors go to the login page; authenticated visitors never see the login
// page; the admin subtree needs a privileged role; everything else renders.
func Decide(in GuardInput) GuardResult {
	if in.Loading {
		return GuardResult{Decision: DecisionWait}
	}

	authenticated := in.State == service.StateAuthenticated

	if !authenticated && in.Path != LoginPath {
		return GuardResult{Decision: DecisionRedirect, Target: LoginPath}
	}
	if authenticated && in.Path == LoginPath {
		return GuardResult{Decision: DecisionRedirect, Target: LandingPath}
	}
	if authenticated && underAdmin(in.Path) && !holdsAdminRole(in.Roles) {
		return GuardResult{Decision: DecisionRedirect, Target: LandingPath}
	}
	return GuardResult{Decision: DecisionRender}
}

func underAdmin(path string) bool {
	return path == AdminPrefix || strings.HasPrefix(path, AdminPrefix+"/")
}

func holdsAdminRole(roles []string) bool {
	for _, r := range roles {
		for _, admin := range domainsession.AdminRoles {
			if r == admin {
				return true
			}
		}
	}
	return false
}
