package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

const sessionCookie = "session"

type identityKey struct{}

// loadIdentity resolves the session token, from the cookie or a bearer
// header, and stores the caller in the request context. Requests without a
// valid token pass through anonymously.
func (s *Server) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				respondWithServiceError(w, err, "Failed to authenticate")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func identityFrom(ctx context.Context) *service.Identity {
	id, _ := ctx.Value(identityKey{}).(*service.Identity)
	return id
}

// currentUser returns the authenticated user. Only call it behind one of the
// require middlewares.
func currentUser(r *http.Request) *domain.User {
	return identityFrom(r.Context()).User
}

func (s *Server) requireWebUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()) == nil {
			setFlash(w, flashInfo, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPIUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()) == nil {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
