package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitalora/staffgate"
	"github.com/vitalora/staffgate/config"
	httpx "github.com/vitalora/staffgate/internal/http"
)

// Dev mode serves templates and assets from disk for hot reloading.
const (
	templateDirFromRoot = "frontend/templates"
	staticDirFromRoot   = "frontend/static"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// ProxyTrust builds the forwarding header policy from configuration.
func ProxyTrust(cfg *config.AppConfig) (httpx.ProxyTrust, error) {
	proxies, err := httpx.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return httpx.ProxyTrust{}, err
	}
	return httpx.ProxyTrust{Enabled: cfg.HTTP.TrustProxyHeaders, Proxies: proxies}, nil
}

// SessionCookie builds the session cookie settings from configuration.
func SessionCookie(cfg *config.AppConfig, proxy httpx.ProxyTrust) httpx.SessionCookie {
	return httpx.SessionCookie{
		Name:     cfg.Auth.CookieName,
		TTL:      cfg.Auth.SessionTTL,
		SameSite: cfg.Auth.SameSite.HTTP(),
		Domain:   cfg.HTTP.CookieDomain,
		Dev:      cfg.IsDev,
		Proxy:    proxy,
	}
}

// NewHTTPServer builds the router and server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	if cfg.Services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	if appCfg.HTTP.RejectedCookieDomain != "" {
		logger.Warn("ignoring cookie domain that is a public suffix; using host-only cookies",
			"cookie_domain", appCfg.HTTP.RejectedCookieDomain)
	}

	proxy, err := ProxyTrust(appCfg)
	if err != nil {
		return nil, fmt.Errorf("http config: %w", err)
	}

	templates, static, err := frontendFS(appCfg.IsDev)
	if err != nil {
		return nil, err
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{
		TemplateFS: templates,
		DevMode:    appCfg.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	services := httpx.RouterServices{
		Auth:     cfg.Services.Auth,
		Cookie:   SessionCookie(appCfg, proxy),
		Proxy:    proxy,
		Renderer: renderer,
		Static:   static,
		Logger:   logger,
	}
	// Assigned only when present so the interface stays nil when auditing is off.
	if cfg.Services.AuditRepo != nil {
		services.Audit = cfg.Services.AuditRepo
	}
	if cfg.Services.Registry != nil {
		services.Metrics = promhttp.HandlerFor(cfg.Services.Registry, promhttp.HandlerOpts{Registry: cfg.Services.Registry})
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

func frontendFS(dev bool) (fs.FS, fs.FS, error) {
	if dev {
		return os.DirFS(templateDirFromRoot), os.DirFS(staticDirFromRoot), nil
	}
	templates, err := fs.Sub(staffgate.TemplateFS, templateDirFromRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded templates: %w", err)
	}
	static, err := fs.Sub(staffgate.StaticFS, staticDirFromRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded static assets: %w", err)
	}
	return templates, static, nil
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWaitTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
