package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"time"

	apperrors "github.com/vitalora/staffgate/internal/errors"
)

// Defaults for the staff CSRF cookie.
const (
	DefaultCSRFCookieName = "staff_csrf"
	DefaultCSRFHeaderName = "X-Csrf-Token"
	DefaultCSRFFieldName  = "csrf_token"
	DefaultCSRFTokenBytes = 32
	DefaultCSRFMaxAge     = 12 * time.Hour
)

var errCSRFRejected = apperrors.Forbidden("invalid or missing CSRF token")

// CSRFConfig configures the double-submit cookie check on the staff login and logout forms.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	FieldName  string
	Domain     string
	TokenBytes int
	MaxAge     time.Duration
	// MaxFormBytes caps how much of a form body is read to find the field. Zero means no extra cap.
	MaxFormBytes int64
	// Secure decides the cookie's Secure attribute per request. Nil means always secure.
	Secure func(*http.Request) bool
}

func (cfg CSRFConfig) withDefaults() CSRFConfig {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.FieldName == "" {
		cfg.FieldName = DefaultCSRFFieldName
	}
	if cfg.TokenBytes <= 0 {
		cfg.TokenBytes = DefaultCSRFTokenBytes
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultCSRFMaxAge
	}
	return cfg
}

// CSRFProtection issues a CSRF cookie to visitors that lack one and rejects unsafe requests
// whose X-Csrf-Token header (or csrf_token form field) does not match it. Rejections are
// 403 {"error":..., "code":"forbidden"} and never reach the wrapped handler.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieToken := csrfCookieValue(r, cfg.CookieName)

			if !isSafeMethod(r.Method) {
				if !cfg.matches(w, r, cookieToken) {
					w.Header().Set("Cache-Control", "no-store")
					WriteAppError(w, errCSRFRejected)
					return
				}
				next.ServeHTTP(w, r.WithContext(withCSRFToken(r.Context(), cookieToken)))
				return
			}

			token := cookieToken
			if token == "" {
				var err error
				if token, err = newCSRFToken(cfg.TokenBytes); err != nil {
					WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeInternal, "internal error"))
					return
				}
				cfg.setCookie(w, r, token)
			}
			next.ServeHTTP(w, r.WithContext(withCSRFToken(r.Context(), token)))
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func csrfCookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func newCSRFToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// setCookie writes the CSRF cookie. It stays readable by scripts so login.js can echo it.
func (cfg CSRFConfig) setCookie(w http.ResponseWriter, r *http.Request, token string) {
	secure := true
	if cfg.Secure != nil {
		secure = cfg.Secure(r)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// matches compares the submitted token with the cookie in constant time. The header wins over
// the form field; only urlencoded and multipart bodies are parsed for the field.
func (cfg CSRFConfig) matches(w http.ResponseWriter, r *http.Request, cookieToken string) bool {
	if cookieToken == "" {
		return false
	}
	submitted := r.Header.Get(cfg.HeaderName)
	if submitted == "" {
		submitted = cfg.formToken(w, r)
	}
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(cookieToken)) == 1
}

func (cfg CSRFConfig) formToken(w http.ResponseWriter, r *http.Request) string {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return ""
	}
	if cfg.MaxFormBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFormBytes)
	}
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(cfg.MaxFormBytes); err != nil {
			return ""
		}
	} else if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue(cfg.FieldName)
}

type csrfTokenKey struct{}

func withCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// CSRFToken returns the token CSRFProtection attached to the request, for embedding in pages.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
