package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	apperrors "github.com/vitalora/staffgate/internal/errors"
	"github.com/vitalora/staffgate/internal/service"
)

const maxLoginBodyBytes = 8 << 10

var errInvalidBody = apperrors.Validation("invalid request body")

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SessionAuthenticator
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, token string, client domainauth.ClientInfo)
	Mode() domainauth.Mode
}

// AuthHandlers provides HTTP handlers for staff login, logout and the session check.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Cookie SessionCookie
	Proxy  ProxyTrust
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginRequest accepts every field name either credential shape has used.
type loginRequest struct {
	Code     string `json:"code"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Pin      string `json:"pin"`
}

func (req loginRequest) credentials() domainauth.Credentials {
	return domainauth.Credentials{
		Code:     req.Code,
		Username: firstNonEmpty(req.Username, req.Email),
		Password: firstNonEmpty(req.Password, req.Pin),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// decodeLoginRequest reads a JSON body, or a urlencoded/multipart form for plain HTML posts.
func decodeLoginRequest(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxLoginBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return loginRequest{}, err
		}
		return loginRequest{
			Code:     r.PostFormValue("code"),
			Username: r.PostFormValue("username"),
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
			Pin:      r.PostFormValue("pin"),
		}, nil
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return loginRequest{}, err
	}
	return req, nil
}

// Login verifies the submitted credentials and sets the session cookie.
// POST /api/staff/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	req, err := decodeLoginRequest(w, r)
	if err != nil {
		WriteAppError(w, errInvalidBody)
		return
	}

	res, err := h.Svc.Login(r.Context(), service.LoginInput{
		Credentials: req.credentials(),
		Client:      ClientInfo(r, h.Proxy),
	})
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	h.Cookie.Attach(w, r, res.Token)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"redirect": DashboardPagePath,
	})
}

// writeLoginError never sets a cookie and never says which credential field was wrong.
func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *service.ThrottledError
	switch {
	case errors.As(err, &throttled):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(throttled.RetryAfter.Seconds()))))
		WriteAppError(w, errTooManyAttempts)
	case errors.Is(err, domainauth.ErrMissingCredentials):
		WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeValidation, domainauth.ErrMissingCredentials.Error()))
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, domainauth.ErrInvalidCredentials.Error()))
	case errors.Is(err, domainauth.ErrCredentialsNotConfigured), errors.Is(err, domainauth.ErrNoSigningSecret):
		WriteAppError(w, errNotConfigured)
	default:
		h.logger().ErrorContext(r.Context(), "staff login failed", "error", err)
		WriteAppError(w, errInternal)
	}
}

// Logout clears the session cookie. It succeeds with or without a valid session.
// POST /api/staff/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := h.Cookie.Extract(r)
	h.Svc.Logout(r.Context(), token, ClientInfo(r, h.Proxy))

	h.Cookie.Clear(w, r)
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// guardResponse is the session check payload.
type guardResponse struct {
	OK bool `json:"ok"`
	domainauth.Principal
}

// Guard reports the current principal. It runs behind RequireAuth.
// GET /api/staff/guard.
func (h *AuthHandlers) Guard(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeGuardError(w, domainauth.ErrInvalidToken)
		return
	}
	WriteJSON(w, http.StatusOK, guardResponse{OK: true, Principal: p})
}
