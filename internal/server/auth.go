package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Auth guards the admin endpoints with HTTP basic auth against a bcrypt hash
// from the config. With no hash configured, admin endpoints are disabled.
type Auth struct {
	username     string
	passwordHash string
}

func NewAuth(cfg AuthConfig) *Auth {
	return &Auth{
		username:     strings.TrimSpace(cfg.AdminUser),
		passwordHash: strings.TrimSpace(cfg.AdminPasswordHash),
	}
}

// HashPassword produces a bcrypt hash suitable for the admin_password_hash
// config field.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.passwordHash == "" {
			writeError(w, http.StatusUnauthorized, "admin access not configured")
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="pdswatch"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
		passMatch := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil
		if !userMatch || !passMatch {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}
