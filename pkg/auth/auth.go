// Package auth gates tool invocation requests behind a shared-secret bearer
// credential. The gate runs before any tool or upstream work: a denied
// request costs nothing beyond the header comparison.
//
// Callers may present the credential in the conventional Authorization
// header or, for clients that cannot set it, an api-key header. When both
// are present the Authorization header wins outright: a malformed or
// mismatched Authorization value denies the request even if api-key carries
// a valid credential, so a broken primary header is never silently masked.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/metrics"
)

// bearerPrefix must match exactly, including case and the trailing space.
const bearerPrefix = "Bearer "

var log = logrus.WithField("component", "auth")

// Authorizer validates inbound bearer credentials against one configured
// secret. It holds no mutable state and is safe for concurrent use.
type Authorizer struct {
	secret []byte
}

// New returns an Authorizer for the given shared secret. The secret must be
// validated as non-empty at startup; an empty secret would otherwise accept
// the bare "Bearer " prefix.
func New(secret string) *Authorizer {
	return &Authorizer{secret: []byte(secret)}
}

// Authorize reports whether the request headers carry a valid credential.
// Header names are matched case-insensitively via http.Header
// canonicalization.
func (a *Authorizer) Authorize(h http.Header) bool {
	raw := h.Get("Authorization")
	if raw == "" {
		raw = h.Get("Api-Key")
	}
	if !strings.HasPrefix(raw, bearerPrefix) {
		return false
	}
	candidate := strings.TrimSpace(raw[len(bearerPrefix):])
	return subtle.ConstantTimeCompare([]byte(candidate), a.secret) == 1
}

// Middleware rejects unauthorized requests with a 401 JSON body before the
// wrapped handler runs. Only pass/fail and header presence are logged, never
// credential values.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorize(r.Header) {
			metrics.AuthDenials.Inc()
			log.WithFields(logrus.Fields{
				"path":               r.URL.Path,
				"authorization_set":  r.Header.Get("Authorization") != "",
				"api_key_header_set": r.Header.Get("Api-Key") != "",
			}).Warn("request denied")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
