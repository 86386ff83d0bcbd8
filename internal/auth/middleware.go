package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or overwrite the
// claims stored by this middleware.
type contextKey string

const claimsKey contextKey = "claims"

// Messages returned by the middleware. Exported so handler tests can match
// on them.
const (
	MsgTokenRequired = "access token required"
	MsgTokenInvalid  = "invalid or expired token"
	MsgAdminRequired = "admin privileges required"
)

// errNoToken means the request carried no usable bearer credential.
var errNoToken = errors.New("auth: no bearer token")

// RequireAuth rejects requests without a valid bearer token.
//
// The two failure modes answer differently:
//   - no Authorization header, or not a Bearer one → 401
//   - a bearer token that fails validation        → 403
//
// On success the token's claims are stored in the request context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(r, tokens)
			if errors.Is(err, errNoToken) {
				writeFailure(w, http.StatusUnauthorized, MsgTokenRequired)
				return
			}
			if err != nil {
				writeFailure(w, http.StatusForbidden, MsgTokenInvalid)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := claimsFromRequest(r, tokens); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after RequireAuth. It answers 403 unless the token
// carries isAdmin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, MsgTokenRequired)
			return
		}
		if !claims.IsAdmin {
			writeFailure(w, http.StatusForbidden, MsgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the caller's claims, or (nil, false) for an
// anonymous request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// claimsFromRequest reads "Authorization: Bearer <token>" and validates it.
// The scheme is matched case-insensitively.
func claimsFromRequest(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, errNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errNoToken
	}
	return tokens.Validate(token)
}

// writeFailure writes the standard {success:false, message} envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
