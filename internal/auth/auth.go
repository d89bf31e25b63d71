package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// HeaderName carries the operator credential
const HeaderName = "Authorization"

// Auth guards operator endpoints with a static bearer token
type Auth struct {
	token string
}

// New creates a new Auth instance with the given token. An empty token
// disables the check.
func New(token string) *Auth {
	return &Auth{token: token}
}

// GenerateToken creates a random 32-byte hex token
func GenerateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Enabled reports whether requests are checked at all
func (a *Auth) Enabled() bool {
	return a != nil && a.token != ""
}

// Validate compares a presented token against the configured one
func (a *Auth) Validate(token string) bool {
	if !a.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}

// TokenFromRequest extracts the bearer token, or "" if none was sent
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get(HeaderName)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuthAPI middleware for operator endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Validate(TokenFromRequest(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("WWW-Authenticate", `Bearer realm="ownervote"`)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - admin token required"}`))
	})
}
