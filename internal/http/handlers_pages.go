package httpx

import (
	"net/http"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

// PageHandlers serves the staff login page and the protected dashboard.
type PageHandlers struct {
	Renderer *TemplateRenderer
	Auth     AuthServiceInterface
	Cookie   SessionCookie
}

type pageData struct {
	Title     string
	Mode      domainauth.Mode
	Principal domainauth.Principal
	CSRFToken string
}

// Login renders the login form for the configured credential mode. Visitors that already hold
// a valid session go straight to the dashboard.
// GET /personeel.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if _, err := authenticateRequest(r, h.Auth, h.Cookie); err == nil {
		http.Redirect(w, r, DashboardPagePath, http.StatusFound)
		return
	}
	h.render(w, PageLogin, pageData{Title: "Personeel", Mode: h.Auth.Mode(), CSRFToken: CSRFToken(r)})
}

// Dashboard renders the staff dashboard. It runs behind RequireAuthBrowser.
// GET /personeel-dashboard.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, LoginPagePath, http.StatusFound)
		return
	}
	h.render(w, PageDashboard, pageData{Title: "Dashboard", Mode: h.Auth.Mode(), Principal: p, CSRFToken: CSRFToken(r)})
}

func (h *PageHandlers) render(w http.ResponseWriter, page string, data pageData) {
	if err := h.Renderer.Render(w, http.StatusOK, page, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
