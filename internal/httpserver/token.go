// internal/httpserver/token.go
//
// Session tokens.
// A browser that creates a game receives an HS256 JWT naming its session ID
// (claim "sid"). Every session-scoped route requires the token, either as
// "Authorization: Bearer <token>" or in the session cookie, and the claim must
// match the {id} in the URL.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/jeopardy/internal/session"
)

const (
	cookieName = "jeopardy_session"
	tokenTTL   = 24 * time.Hour
)

var errBadToken = errors.New("invalid session token")

// signToken creates an HS256 JWT for a session ID.
func (s *Server) signToken(sessionID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(tokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.Secret))
	return ss, exp, err
}

// parseToken verifies a token and returns its session ID.
func (s *Server) parseToken(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", errBadToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errBadToken
	}
	return sid, nil
}

// setSessionCookie writes the token cookie scoped to the whole site.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a token from the Authorization header or session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// ctxSessionKey is the context key for the resolved *session.Controller.
type ctxSessionKey struct{}

// requireSession enforces a valid token for the {id} route parameter and
// injects the session into the request context.
func (s *Server) requireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerOrCookie(r)
			if tok == "" {
				jsonError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			sid, err := s.parseToken(tok)
			if err != nil {
				jsonError(w, "invalid_token", http.StatusUnauthorized)
				return
			}
			if sid != chi.URLParam(r, "id") {
				jsonError(w, "forbidden", http.StatusForbidden)
				return
			}
			sess, err := s.store.Get(r.Context(), sid)
			if err != nil {
				jsonError(w, "not_found", http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFrom returns the session placed in the context by requireSession.
func sessionFrom(r *http.Request) *session.Controller {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*session.Controller)
	return sess
}
