package healthcheck

import (
	"encoding/json"
	"net/http"
)

// Self reports liveness only; it touches no dependency.
func Self(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
