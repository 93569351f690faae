package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const sessionTokenKey contextKey = "sessionToken"

// Credentials is a middleware that copies the session token from the
// Authorization header into the request context.
//
// It does NOT reject requests. Whether a token is required, and whether it
// belongs to the user named in the request, is decided by the service
// operation, which also needs the user id from the body or path.
//
// Accepted header forms:
//
//	Authorization: <token>
//	Authorization: Bearer <token>
func Credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromHeader(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(WithSessionToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// WithSessionToken returns a copy of ctx carrying token.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// SessionTokenFromContext returns the token stored by Credentials, or ""
// when the request carried none.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey).(string)
	return token
}

func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		header = strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}
