package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	apperrors "github.com/vitalora/staffgate/internal/errors"
)

// Paths of the staff pages.
const (
	LoginPagePath     = "/personeel"
	DashboardPagePath = "/personeel-dashboard"
)

// SessionAuthenticator verifies session tokens.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Principal, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable. Used on everything that depends on the session.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// authenticateRequest is the access guard: cookie extraction followed by token verification.
// A missing cookie is passed through as an empty token so the service counts it.
func authenticateRequest(r *http.Request, svc SessionAuthenticator, cookie SessionCookie) (domainauth.Principal, error) {
	token, _ := cookie.Extract(r)
	return svc.Authenticate(r.Context(), token)
}

// RequireAuth returns a middleware that rejects requests without a valid session with
// 401 {"error":"not logged in"} before the wrapped handler runs. A deployment without a
// signing secret answers 500 instead.
func RequireAuth(svc SessionAuthenticator, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticateRequest(r, svc, cookie)
			if err != nil {
				w.Header().Set("Cache-Control", "no-store")
				writeGuardError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), p)))
		})
	}
}

// RequireAuthBrowser is RequireAuth for pages: unauthenticated visitors are redirected to the
// login page instead of receiving JSON.
func RequireAuthBrowser(svc SessionAuthenticator, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticateRequest(r, svc, cookie)
			if err != nil {
				w.Header().Set("Cache-Control", "no-store")
				if errors.Is(err, domainauth.ErrNoSigningSecret) {
					http.Error(w, "staff login is not configured", http.StatusInternalServerError)
					return
				}
				http.Redirect(w, r, LoginPagePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), p)))
		})
	}
}

var (
	errNotLoggedIn     = apperrors.Unauthorized("not logged in")
	errNotConfigured   = apperrors.Configuration("staff login is not configured")
	errInternal        = apperrors.Internal("internal error")
	errTooManyAttempts = apperrors.RateLimited("too many login attempts, try again later")
)

func writeGuardError(w http.ResponseWriter, err error) {
	if errors.Is(err, domainauth.ErrNoSigningSecret) {
		WriteAppError(w, errNotConfigured)
		return
	}
	WriteAppError(w, errNotLoggedIn)
}
