package httpx

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/vitrinnea/admin-console/internal/service"
)

// Pages renders the console's minimal server-side views. The interesting
// logic lives in the guard and the JSON API; these views are thin shells.
type Pages struct {
	Logger *slog.Logger
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} · Vitrinnea Console</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .User}}<p>Signed in as {{.User.Name}} ({{.User.Email}}){{if .Country}}, country {{.Country}}{{end}}.</p>{{end}}
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title   string
	User    any
	Country string
	Body    template.HTML
}

func (p *Pages) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil && p.Logger != nil {
		p.Logger.Warn("render page failed", "title", data.Title, "error", err)
	}
}

// Login renders the sign-in form.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	p.render(w, pageData{
		Title: "Sign in",
		Body: template.HTML(`<form method="post" action="/api/auth/login" id="login">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<label>Country <input type="text" name="country" maxlength="2"></label>
<button type="submit">Sign in</button>
</form>`),
	})
}

// Profile renders the authenticated landing page.
func (p *Pages) Profile(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFor(r)
	p.render(w, pageData{
		Title:   "Profile",
		User:    snap.User,
		Country: snap.SelectedCountry,
		Body:    template.HTML(`<p><a href="/admin/users">User administration</a></p>`),
	})
}

// Admin renders the administration shell.
func (p *Pages) Admin(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFor(r)
	p.render(w, pageData{
		Title:   "Administration",
		User:    snap.User,
		Country: snap.SelectedCountry,
		Body:    template.HTML(`<p>Manage <a href="/admin/users">users</a> and <a href="/admin/groups">groups</a>.</p>`),
	})
}

func snapshotFor(r *http.Request) service.SessionSnapshot {
	if svc, ok := GetSessionFromContext(r.Context()); ok {
		return svc.Snapshot()
	}
	return service.SessionSnapshot{}
}
