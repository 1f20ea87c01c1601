package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/awareness-network/semindex/pkg/api/response"
)

// ErrNoAPIKeys is returned by NewAuthenticator when no usable key is given.
var ErrNoAPIKeys = errors.New("auth: no api keys configured")

type principalKey struct{}

// Authenticator checks bearer tokens against a fixed set of API keys.
// Keys are held as SHA-256 digests and compared in constant time.
type Authenticator struct {
	keys [][sha256.Size]byte
}

// NewAuthenticator builds an Authenticator from keys. Blank keys are ignored.
func NewAuthenticator(keys []string) (*Authenticator, error) {
	a := &Authenticator{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			a.keys = append(a.keys, sha256.Sum256([]byte(k)))
		}
	}
	if len(a.keys) == 0 {
		return nil, ErrNoAPIKeys
	}
	return a, nil
}

// match returns the index of the key equal to token, or -1. Every key is
// compared so timing does not reveal which one matched.
func (a *Authenticator) match(token string) int {
	sum := sha256.Sum256([]byte(token))
	found := -1
	for i, k := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], k[:]) == 1 {
			found = i
		}
	}
	return found
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth rejects requests without a valid bearer token with 401 and a
// WWW-Authenticate challenge. Accepted requests carry the index of the
// matching key in their context.
func Auth(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				rejectUnauthorized(w, r, "Missing bearer token")
				return
			}
			idx := a.match(token)
			if idx < 0 {
				rejectUnauthorized(w, r, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, idx)))
		})
	}
}

// APIKeyIndex returns the position of the API key that authenticated the
// request, if any.
func APIKeyIndex(ctx context.Context) (int, bool) {
	idx, ok := ctx.Value(principalKey{}).(int)
	return idx, ok
}

func rejectUnauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="semindex"`)
	response.Error(w, http.StatusUnauthorized, response.ErrCodeUnauthorized, msg, requestIDFor(r))
}
