package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serialises v to the response writer with the given status code.
// Encoding errors after the header has been written can only be logged by
// the caller's middleware; the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
