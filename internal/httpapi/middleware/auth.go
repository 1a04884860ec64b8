package middleware

import (
	"net/http"
	"strings"
)

// Keys holds the two credential tiers. Public keys unlock the read routes,
// admin keys additionally unlock mutating routes. An empty tier disables the
// corresponding gate entirely, which is the local-dev mode.
type Keys struct {
	Public []string
	Admin  []string
}

// presentedKey extracts the credential from either a bearer Authorization
// header or the X-API-Key header, in that order.
func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func keySet(tiers ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tier := range tiers {
		for _, k := range tier {
			if k != "" {
				set[k] = struct{}{}
			}
		}
	}
	return set
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// RequireAny admits requests carrying any configured key, public or admin.
// With no keys configured at all the gate is open.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	allowed := keySet(keys.Public, keys.Admin)
	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[presentedKey(r)]; !ok {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits only requests carrying an admin key. With no admin
// keys configured the gate is open.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	allowed := keySet(keys.Admin)
	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[presentedKey(r)]; !ok {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
