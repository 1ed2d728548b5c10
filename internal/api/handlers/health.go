package handlers

import (
	"net/http"
)

// Health provides a minimal liveness check endpoint. The model version is included so
// deployments can confirm which artifacts are live.
func Health(modelVersion string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{"status": "ok", "model_version": modelVersion}
		writeJSON(w, r, http.StatusOK, res)
	}
}
