package handler

// RESPONSE HELPERS:
// Every API response, success or failure, is the same envelope:
//
//	{"status": true,  "code": -1, "data": ...}
//	{"status": false, "code": 4,  "message": "Session does not exist."}
//
// Handlers never build it by hand. They call the service and pass the
// (value, error) pair to writeResult, which picks the envelope and the HTTP
// status in one place.
//
// STATUS MAPPING:
// The HTTP status mirrors the code (see envelope.HTTPStatus) so proxies
// and request logs see failures:
//
//	-1            → 200 (201 for creations)
//	 0            → 500, or 400 when the error is rejected input
//	 1, 10        → 409
//	 2, 7         → 404
//	 3, 4, 5      → 401
//	 6, 8         → 403
//	 9            → 400
//
// Clients written against the body alone keep working: the envelope is
// always present.
//
// ERROR TEXT:
// Only coded errors and validation messages reach the client verbatim. An
// internal fault is reported as "An error occurred." and its real text
// stays in the service log.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/hypot/internal/envelope"
)

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; the body follows.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeEnvelope sends env with its mapped status. okStatus replaces 200
// for successful creations.
func writeEnvelope(w http.ResponseWriter, env envelope.Envelope, okStatus int) {
	status := env.HTTPStatus()
	if env.Status && okStatus != 0 {
		status = okStatus
	}
	writeJSON(w, status, env)
}

// writeResult sends the envelope for a (value, error) pair.
func writeResult[T any](w http.ResponseWriter, v T, err error, okStatus int) {
	writeEnvelope(w, envelope.Of(v, err), okStatus)
}

// writeError sends the failure envelope for err.
func writeError(w http.ResponseWriter, err error) {
	writeEnvelope(w, envelope.FromError(err), 0)
}
