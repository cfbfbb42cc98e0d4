package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

const tokenCookieName = "abkit_token"

// authMiddleware accepts the token as a bearer header, a query param or a
// cookie. A valid query param also sets the cookie so browsers only need
// it once.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authorize(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// authorize reports whether r carries the token, writing a 401 when it
// doesn't.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if s.validToken(bearer) {
			return true
		}
		writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
		return false
	}

	if queryToken := r.URL.Query().Get("token"); queryToken != "" {
		if !s.validToken(queryToken) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return false
		}
		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookieName,
			Value:    s.token,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   int(24 * time.Hour / time.Second), // 24 hours
			SameSite: http.SameSiteLaxMode,
		})
		return true
	}

	cookie, err := r.Cookie(tokenCookieName)
	if err != nil || !s.validToken(cookie.Value) {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid token")
		return false
	}
	return true
}

// saveAllowed gates writes to the history behind the same token as reads.
func (s *Server) saveAllowed(w http.ResponseWriter, r *http.Request, opts SaveOptions) bool {
	return !opts.Save || s.authorize(w, r)
}

func (s *Server) validToken(t string) bool {
	return subtle.ConstantTimeCompare([]byte(t), []byte(s.token)) == 1
}
