package httpx

import (
	"log/slog"
	"net/http"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/ports"
	"github.com/vitrinnea/admin-console/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions *service.SessionManager
	// Audit is optional; admin mutations are recorded when present.
	Audit        ports.AuditRecorder
	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

// NewRouter creates and configures the console router. Every route runs
// behind the session-resolution middleware; browser routes additionally run
// behind the guard, API routes behind the JSON auth/role middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Logger: services.Logger}
	adminHandlers := &AdminHandlers{Audit: services.Audit, Logger: services.Logger}
	pages := &Pages{Logger: services.Logger}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Session lifecycle API. Login and logout stay outside the auth
	// middleware; the session snapshot simply reports anonymous when no
	// one is signed in.
	mux.HandleFunc("POST /api/auth/login", authHandlers.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /api/auth/session", authHandlers.Session)

	requireAuth := RequireAuthAPI()
	mux.Handle("GET /api/auth/verify", requireAuth(http.HandlerFunc(authHandlers.Verify)))
	mux.Handle("POST /api/auth/country", requireAuth(http.HandlerFunc(authHandlers.ChangeCountry)))
	mux.Handle("POST /api/auth/refresh-user", requireAuth(http.HandlerFunc(authHandlers.RefreshUser)))

	// Admin API: privileged roles only.
	requireAdmin := RequireRoleAPI(domainsession.AdminRoles...)
	registerAdminRoutes(mux, adminHandlers, requireAdmin)

	// Browser routes behind the guard.
	guard := Guard()
	mux.Handle("GET /login", guard(http.HandlerFunc(pages.Login)))
	mux.Handle("GET /profile", guard(http.HandlerFunc(pages.Profile)))
	mux.Handle("GET /admin", guard(http.HandlerFunc(pages.Admin)))
	mux.Handle("GET /admin/", guard(http.HandlerFunc(pages.Admin)))
	mux.Handle("GET /{$}", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LandingPath, http.StatusSeeOther)
	})))

	// Outermost chain: Recover -> Logging -> RequestID -> BrowserDetection
	// -> session resolution -> router.
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var handler http.Handler = mux
	handler = WithConsoleSession(services.Sessions, SessionCookieOptions{
		Secure: services.CookieSecure,
		Domain: services.CookieDomain,
	})(handler)
	handler = BrowserDetection()(handler)
	handler = RequestID()(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, requireAdmin func(http.Handler) http.Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(fn))
	}

	route("GET /api/admin/users", h.ListUsers)
	route("POST /api/admin/users", h.CreateUser)
	route("GET /api/admin/users/{id}", h.GetUser)
	route("PUT /api/admin/users/{id}", h.UpdateUser)
	route("DELETE /api/admin/users/{id}", h.DeleteUser)
	route("POST /api/admin/users/{id}/roles", h.AssignRoles)

	route("GET /api/admin/groups", h.ListGroups)
	route("POST /api/admin/groups", h.CreateGroup)
	route("GET /api/admin/groups/{id}", h.GetGroup)
	route("PUT /api/admin/groups/{id}", h.UpdateGroup)
	route("DELETE /api/admin/groups/{id}", h.DeleteGroup)
	route("POST /api/admin/groups/{id}/permissions", h.AssignPermissions)

	route("GET /api/admin/permissions", h.ListPermissions)
	route("GET /api/admin/audit", h.ListAudit)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
