package httpapi

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

func writeAuthError(w http.ResponseWriter, message, code string) {
	writeJSON(w, http.StatusUnauthorized, envelope{
		"success": false,
		"message": message,
		"code":    code,
	})
}
