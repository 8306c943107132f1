package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

// HashKey returns the hex SHA-256 digest of an admin key. Only digests are
// kept in configuration.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// AdminOnly requires a valid admin key on every mutating /api/ request
// (reload, cache invalidation). Reads are never guarded. With no digests
// configured the middleware is a no-op.
func AdminOnly(keyHashes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keyHashes) == 0 {
			return next
		}
		digests := make([][]byte, 0, len(keyHashes))
		for _, h := range keyHashes {
			if d, err := hex.DecodeString(strings.TrimSpace(h)); err == nil && len(d) == sha256.Size {
				digests = append(digests, d)
			}
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			key := extractKey(r)
			if key == "" {
				writeAppError(w, apperrors.New(apperrors.ErrUnauthorized, http.StatusUnauthorized, "missing admin key"))
				return
			}
			if !matchesAny(key, digests) {
				writeAppError(w, apperrors.New(apperrors.ErrUnauthorized, http.StatusForbidden, "invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractKey reads Authorization: Bearer first, then X-API-Key.
func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func matchesAny(key string, digests [][]byte) bool {
	sum := sha256.Sum256([]byte(key))
	ok := 0
	for _, d := range digests {
		ok |= subtle.ConstantTimeCompare(sum[:], d)
	}
	return ok == 1
}
