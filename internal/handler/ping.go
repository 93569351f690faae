package handler

import "net/http"

// HandlePing answers liveness checks with a plain "pong".
//
// HTTP: GET /api/ping
func HandlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}
