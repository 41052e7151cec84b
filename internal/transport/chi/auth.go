package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Credential maps one API key to a caller.
type Credential struct {
	Key     string
	Role    domain.Role
	Subject string
}

// Identity is the authenticated caller.
type Identity struct {
	Role    domain.Role
	Subject string
}

type identityKey struct{}

type slotKey struct{}

// identitySlot lets an outer middleware observe the identity resolved further in.
type identitySlot struct {
	id  Identity
	set bool
}

func contextWithIdentitySlot(ctx context.Context, slot *identitySlot) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	if slot, ok := ctx.Value(slotKey{}).(*identitySlot); ok {
		slot.id, slot.set = id, true
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, or an anonymous candidate.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{Role: domain.RoleCandidate}
}

// APIKeyAuthMiddleware resolves "Authorization: Bearer <key>" or "X-API-Key: <key>" to an Identity.
// If creds is empty, authentication is disabled and every caller is an anonymous candidate.
func APIKeyAuthMiddleware(creds []Credential) func(http.Handler) http.Handler {
	byKey := make(map[string]Identity, len(creds))
	for _, c := range creds {
		if c.Key != "" {
			byKey[c.Key] = Identity{Role: c.Role, Subject: c.Subject}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled: pass everything through
		if len(byKey) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := apiKey(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing api key")
				return
			}

			id, ok := byKey[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

func apiKey(r *http.Request) (string, bool) {
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k, true
	}
	const bearerPrefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(bearerPrefix):])
	return token, token != ""
}
