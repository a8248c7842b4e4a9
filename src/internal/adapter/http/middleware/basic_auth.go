package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuth checks the channel credentials on every request. channelKey may
// be a bcrypt hash ("$2a$...", "$2b$...") or the plain key.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	matchKey := plainMatcher(channelKey)
	if strings.HasPrefix(channelKey, "$2") {
		matchKey = bcryptMatcher(channelKey)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if channelID == "" || channelKey == "" {
				logger.Error("basic auth middleware missing server configuration", nil, logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				http.Error(w, "server auth configuration is missing", http.StatusInternalServerError)
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok || !secureEqual(id, channelID) || !matchKey(key) {
				logger.Info("basic auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "invalid_or_missing",
				})
				w.Header().Set("WWW-Authenticate", `Basic realm="savings-ledger"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func plainMatcher(expected string) func(string) bool {
	return func(key string) bool {
		return secureEqual(key, expected)
	}
}

func bcryptMatcher(hash string) func(string) bool {
	return func(key string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
