package httpx

import "net/http"

// healthHandler answers liveness checks. It touches neither the signing secret nor any backend,
// so a misconfigured login still reports healthy.
// GET /healthz.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
