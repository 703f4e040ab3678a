// Package httpx is the HTTP surface of staffgate: the staff login API, the session guard,
// the login audit listing and the staff pages.
package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/vitalora/staffgate/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth   AuthServiceInterface // Required
	Audit  ports.AuditReader    // Optional: nil when auditing is disabled
	Cookie SessionCookie
	// Proxy governs which forwarding headers ClientInfo believes.
	Proxy ProxyTrust
	// Renderer serves the staff pages. Pages are not routed when nil.
	Renderer *TemplateRenderer
	// Static serves /static/ when set.
	Static fs.FS
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter creates and configures the HTTP router with logging and panic recovery.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:    services.Auth,
		Cookie: services.Cookie,
		Proxy:  services.Proxy,
		Logger: logger,
	}
	csrf := CSRFProtection(CSRFConfig{
		Domain:       services.Cookie.Domain,
		MaxFormBytes: maxLoginBodyBytes,
		Secure:       services.Cookie.secure,
	})
	requireAuth := RequireAuth(services.Auth, services.Cookie)
	registerAuthRoutes(mux, authHandlers, requireAuth, csrf)
	mux.Handle("GET /api/staff/audit", NoStore(requireAuth(http.HandlerFunc(
		(&AuditHandlers{Reader: services.Audit, Logger: logger}).List,
	))))

	if services.Renderer != nil {
		pages := &PageHandlers{Renderer: services.Renderer, Auth: services.Auth, Cookie: services.Cookie}
		mux.Handle("GET "+LoginPagePath, csrf(http.HandlerFunc(pages.Login)))
		// GET patterns also match HEAD.
		mux.Handle("GET "+DashboardPagePath, NoStore(RequireAuthBrowser(services.Auth, services.Cookie)(
			csrf(http.HandlerFunc(pages.Dashboard)),
		)))
	}

	mux.HandleFunc("GET /healthz", healthHandler)
	if services.Static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(services.Static)))
	}
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	return Recover(logger)(Logging(logger)(mux))
}

// registerAuthRoutes wires the session endpoints. Login and logout change cookie state, so
// both sit behind the CSRF check.
func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, requireAuth, csrf func(http.Handler) http.Handler) {
	mux.Handle("POST /api/staff/login", csrf(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/staff/logout", csrf(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/staff/guard", NoStore(requireAuth(http.HandlerFunc(h.Guard))))
}
