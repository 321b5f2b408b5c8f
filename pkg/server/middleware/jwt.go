package middleware

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/pawguardian/pkg/identity"
)

var bearerRegex = regexp.MustCompile(`^Bearer\s+(\S+)$`)

// JWTAuthenticator is middleware that validates HS256 API tokens
type JWTAuthenticator struct {
	Key []byte
}

// NewJWTAuthenticator creates a new JWT authenticator middleware.
// An empty key leaves the API open.
func NewJWTAuthenticator(key []byte) *JWTAuthenticator {
	return &JWTAuthenticator{Key: key}
}

// Enabled reports whether tokens are required
func (j *JWTAuthenticator) Enabled() bool {
	return len(j.Key) > 0
}

// Middleware returns an HTTP middleware that validates bearer tokens and
// stores the caller's identity in the request context
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteIP := identity.RemoteIP(r)

		if !j.Enabled() {
			id := (&identity.Identity{}).WithRemoteIP(remoteIP)
			next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
			return
		}

		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenMatches := bearerRegex.FindStringSubmatch(authHeader)

		if len(tokenMatches) != 2 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		claims, err := identity.Parse(j.Key, tokenMatches[1])
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			if errors.Is(err, identity.ErrInvalidToken) && isExpired(err) {
				_, _ = w.Write([]byte("Token expired"))
				return
			}
			_, _ = w.Write([]byte("Invalid token"))
			return
		}

		id := identity.FromClaims(claims).WithRemoteIP(remoteIP)
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func isExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
