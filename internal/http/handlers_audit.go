package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	apperrors "github.com/vitalora/staffgate/internal/errors"
	"github.com/vitalora/staffgate/internal/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// AuditHandlers exposes the login audit trail to logged-in staff.
type AuditHandlers struct {
	// Reader is nil when auditing is disabled.
	Reader ports.AuditReader
	Logger *slog.Logger
}

// List returns recent audit events, newest first.
// GET /api/staff/audit?limit=<n>.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseAuditLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if h.Reader == nil {
		WriteJSON(w, http.StatusOK, []domainauth.AuditEvent{})
		return
	}

	events, err := h.Reader.ListRecent(r.Context(), limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "list login audit events", "error", err)
		}
		WriteAppError(w, err)
		return
	}
	if events == nil {
		events = []domainauth.AuditEvent{}
	}
	WriteJSON(w, http.StatusOK, events)
}

func parseAuditLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.ValidationField("limit", "limit must be a positive integer")
	}
	return min(n, maxAuditLimit), nil
}
